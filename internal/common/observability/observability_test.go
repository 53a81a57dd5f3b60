package observability

import (
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_RecordsIntoRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("realty-crm-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	obs.RecordRequest(context.Background(), "/api/leads", 200, 15*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "api_requests_total")
	assert.Contains(t, names, "api_request_duration_milliseconds")
}

func TestRecordRequest_NilSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordRequest(context.Background(), "/x", 500, time.Second)
	})
	assert.NoError(t, obs.Shutdown(context.Background()))
}

func TestNewTracing_DisabledIsNoop(t *testing.T) {
	tr, err := NewTracing(TracingConfig{ServiceName: "svc"})
	require.NoError(t, err)

	_, span := tr.Tracer().Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestNewTracing_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tr := newTracing(TracingConfig{ServiceName: "svc", SampleRatio: 1}, sdktrace.WithSpanProcessor(recorder))
	defer tr.Shutdown(context.Background())

	_, span := tr.Tracer().Start(context.Background(), "llm.chat_completion")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "llm.chat_completion", ended[0].Name())
}
