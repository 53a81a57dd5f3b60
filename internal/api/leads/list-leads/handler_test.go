package listleads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	apperrors "realty-crm/internal/common/errors"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ==========================
// Test Helper Functions
// ==========================

var contactRowColumns = []string{
	"id", "user_id", "first_name", "last_name", "email", "phone", "lead_source",
	"lead_status", "lead_score", "buyer_seller", "preferred_locations",
	"last_contacted_at", "created_at", "updated_at",
}

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		CacheTTL:     30 * time.Second,
		DefaultLimit: 50,
		MaxLimit:     200,
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
}

func sampleRows(userID string) *sqlmock.Rows {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(contactRowColumns).
		AddRow("c-3", userID, "Emily", "Rodriguez", "emily@example.com", nil, "referral",
			"new", 91, "buyer", "{Austin,\"Round Rock\"}", nil, created, created).
		AddRow("c-1", userID, "Sarah", "Johnson", "sarah@example.com", "+15125550100", "website",
			"qualified", 85, "buyer", "{Austin}", created, created, created).
		AddRow("c-2", userID, "Michael", nil, nil, nil, nil,
			"contacted", 72, "seller", "{}", nil, created, created).
		AddRow("c-4", userID, "David", "Kim", "david@example.com", nil, "open_house",
			"nurture", 58, "buyer", nil, nil, created, created)
}

var statsRowColumns = []string{"total", "new", "qualified", "avg_score"}

func expectStats(mock sqlmock.Sqlmock, userID string, stats Stats) {
	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER \(WHERE lead_status = \$2\), COUNT\(\*\) FILTER \(WHERE lead_status = \$3\), .* FROM contacts WHERE user_id = \$1$`).
		WithArgs(userID, "new", "qualified").
		WillReturnRows(sqlmock.NewRows(statsRowColumns).
			AddRow(stats.Total, stats.New, stats.Qualified, stats.AvgScore))
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET(Route, h.Handle)
	return r
}

func get(r http.Handler, params url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, Route+"?"+params.Encode(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandle_ListsLeadsWithStats(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New().String()

	mock.ExpectQuery(`SELECT .* FROM contacts WHERE user_id = \$1 ORDER BY lead_score DESC NULLS LAST, created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(userID, 50, 0).
		WillReturnRows(sampleRows(userID))
	expectStats(mock, userID, Stats{Total: 4, New: 1, Qualified: 1, AvgScore: 77})

	h := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))
	w := get(newRouter(h), url.Values{"user_id": {userID}})

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Leads, 4)
	assert.Equal(t, Stats{Total: 4, New: 1, Qualified: 1, AvgScore: 77}, resp.Stats)

	first := resp.Leads[0]
	assert.Equal(t, "c-3", first.ID)
	assert.Equal(t, models.ScoreBandHot, first.ScoreBand)
	assert.Equal(t, []string{"Austin", "Round Rock"}, first.PreferredLocations)
	assert.Nil(t, first.Phone)
	assert.Nil(t, first.LastContactedAt)

	assert.Equal(t, models.ScoreBandWarm, resp.Leads[2].ScoreBand)
	assert.Nil(t, resp.Leads[2].LastName)
	assert.Equal(t, models.ScoreBandCold, resp.Leads[3].ScoreBand)
}

func TestHandle_StatusAndSearchFilters(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New().String()

	mock.ExpectQuery(`FROM contacts WHERE user_id = \$1 AND lead_status = \$2 AND LOWER\(.*\) LIKE \$3 ORDER BY .* LIMIT \$4 OFFSET \$5`).
		WithArgs(userID, "qualified", "%sarah\\_j%", 10, 20).
		WillReturnRows(sqlmock.NewRows(contactRowColumns))
	// stats cover the whole book regardless of the filters
	expectStats(mock, userID, Stats{Total: 12, New: 5, Qualified: 3, AvgScore: 64})

	h := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))
	w := get(newRouter(h), url.Values{
		"user_id": {userID},
		"status":  {"qualified"},
		"search":  {"  Sarah_J "},
		"limit":   {"10"},
		"offset":  {"20"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.JSONEq(t, `{"leads":[],"stats":{"total":12,"new":5,"qualified":3,"avg_score":64}}`, w.Body.String())
}

func TestHandle_InvalidQuery(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))
	r := newRouter(h)
	userID := uuid.New().String()

	tests := []struct {
		name   string
		params url.Values
	}{
		{"missing user id", url.Values{}},
		{"user id not a uuid", url.Values{"user_id": {"abc"}}},
		{"unknown status", url.Values{"user_id": {userID}, "status": {"archived"}}},
		{"limit too large", url.Values{"user_id": {userID}, "limit": {"500"}}},
		{"limit not a number", url.Values{"user_id": {userID}, "limit": {"ten"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.params)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, apperrors.ErrCodeInvalidInput, body.Code)
			assert.NotEmpty(t, body.Details)
		})
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_QueryFailure(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New().String()
	mock.ExpectQuery(`FROM contacts`).WillReturnError(errors.New("pq: relation \"contacts\" does not exist"))

	h := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))
	w := get(newRouter(h), url.Values{"user_id": {userID}})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, body.Code)
	assert.Empty(t, body.Details)
	assert.True(t, body.Retryable)
}

func TestHandle_StatsQueryFailure(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New().String()
	mock.ExpectQuery(`ORDER BY`).WillReturnRows(sampleRows(userID))
	mock.ExpectQuery(`COUNT\(\*\)`).WillReturnError(errors.New("pq: canceling statement"))

	h := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))
	w := get(newRouter(h), url.Values{"user_id": {userID}})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, body.Code)
}

func TestExecute_UsesCache(t *testing.T) {
	db, mock := newMockDB(t)
	mr, rdb := newMiniredis(t)
	userID := uuid.New().String()

	mock.ExpectQuery(`FROM contacts`).
		WithArgs(userID, 50, 0).
		WillReturnRows(sampleRows(userID))
	expectStats(mock, userID, Stats{Total: 4, New: 1, Qualified: 1, AvgScore: 77})

	h := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := h.Execute(ctx, &Query{UserID: userID})
	require.NoError(t, err)

	key := "leads:" + userID + ":all::50:0"
	require.True(t, mr.Exists(key))
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	second, err := h.Execute(ctx, &Query{UserID: userID, Status: StatusAll})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, len(first.Leads), len(second.Leads))
	assert.Equal(t, first.Leads[0].ID, second.Leads[0].ID)
}

func TestExecute_CacheErrorFallsBackToDatabase(t *testing.T) {
	db, mock := newMockDB(t)
	mr, rdb := newMiniredis(t)
	mr.SetError("ERR injected failure")
	userID := uuid.New().String()

	mock.ExpectQuery(`FROM contacts`).WillReturnRows(sampleRows(userID))
	expectStats(mock, userID, Stats{Total: 4, New: 1, Qualified: 1, AvgScore: 77})

	core, logs := observer.New(zap.WarnLevel)
	h := NewHandler(createTestConfig(), db, rdb, logger.NewZapAdapter(zap.New(core)))
	resp, err := h.Execute(context.Background(), &Query{UserID: userID})

	require.NoError(t, err)
	assert.Len(t, resp.Leads, 4)
	require.NoError(t, mock.ExpectationsWereMet())

	reads := logs.FilterMessage("lead cache read failed").All()
	require.Len(t, reads, 1)
	assert.Equal(t, string(apperrors.ErrCodeCacheUnavailable), reads[0].ContextMap()["code"])
	assert.Equal(t, true, reads[0].ContextMap()["retryable"])
}

func TestExecute_ClampsLimit(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, nil, logger.NewTestLogger(t))

	q := &Query{UserID: "u", Limit: 1000, Offset: -5}
	h.normalize(q)

	assert.Equal(t, 200, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, StatusAll, q.Status)
}

func TestBuildQuery_EscapesLikeWildcards(t *testing.T) {
	_, args := buildQuery(&Query{UserID: "u", Status: StatusAll, Search: `50%_off\`, Limit: 5})

	require.Len(t, args, 4)
	assert.Equal(t, `%50\%\_off\\%`, args[1])
}

func TestQueryStats(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New().String()
	expectStats(mock, userID, Stats{Total: 3, New: 2, Qualified: 0, AvgScore: 60})

	stats, err := queryStats(context.Background(), db, userID)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, Stats{Total: 3, New: 2, Qualified: 0, AvgScore: 60}, stats)
}

func TestBuildResponse_EmptyPage(t *testing.T) {
	resp := buildResponse(nil, Stats{Total: 7})

	assert.NotNil(t, resp.Leads)
	assert.Empty(t, resp.Leads)
	assert.Equal(t, 7, resp.Stats.Total)
}
