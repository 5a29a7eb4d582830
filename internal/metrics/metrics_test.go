package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/shramba/internal/apperr"
)

func TestObserveMutation(t *testing.T) {
	before := testutil.ToFloat64(mutations.WithLabelValues("add", string(apperr.CodeValidation)))
	ObserveMutation("add", apperr.Validation(map[string]string{"name": "required"}))
	after := testutil.ToFloat64(mutations.WithLabelValues("add", string(apperr.CodeValidation)))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(mutations.WithLabelValues("add", "error"))
	ObserveMutation("add", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(mutations.WithLabelValues("add", "error")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/{id}", "418"))
	assert.Equal(t, 1.0, got)
}

func TestHandlerExposesMetrics(t *testing.T) {
	SetItemCount(4)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "shramba_pantry_items 4"))
}
