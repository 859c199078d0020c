package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMeterProviderServesMetrics(t *testing.T) {
	for _, name := range []string{"tasktalk-test", ""} {
		handler, err := InitMeterProvider(context.Background(), name)
		require.NoError(t, err)
		require.NotNil(t, handler)
		require.NotNil(t, Meter())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code, "service name %q", name)
	}
}

func TestServiceResourceDefaultsName(t *testing.T) {
	res, err := serviceResource(context.Background(), "")
	require.NoError(t, err)
	v, ok := res.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, ServiceName, v.AsString())
}

func TestAttributeKeys(t *testing.T) {
	assert.Equal(t, "task_list", AttrIntent.String("task_list").Value.AsString())
	assert.Equal(t, "outcome", string(AttrOutcome))
}
