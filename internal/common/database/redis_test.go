package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cached struct {
	Total int    `json:"total"`
	Label string `json:"label"`
}

func TestJSONRoundTripThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, rdb, "k", cached{Total: 3, Label: "hot"}, time.Minute))
	assert.True(t, mr.Exists("k"))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	var got cached
	require.NoError(t, GetJSON(ctx, rdb, "k", &got))
	assert.Equal(t, cached{Total: 3, Label: "hot"}, got)
}

func TestGetJSON_Miss(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	var got cached
	assert.ErrorIs(t, GetJSON(context.Background(), rdb, "absent", &got), ErrCacheMiss)
}

func TestGetJSON_BackendError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("k").SetErr(errors.New("connection refused"))

	var got cached
	err := GetJSON(context.Background(), rdb, "k", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetJSON_CorruptValue(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	require.NoError(t, mr.Set("k", "{not json"))

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	var got cached
	err = GetJSON(context.Background(), rdb, "k", &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cached")
}
