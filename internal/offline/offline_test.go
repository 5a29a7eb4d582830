package offline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// flaky answers with body until failing is set, then with a 503.
type flaky struct {
	failing bool
	body    string
	calls   int
}

func (f *flaky) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls++
	if f.failing {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, f.body)
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestFallbackAfterFailure(t *testing.T) {
	next := &flaky{body: "<p>pantry</p>"}
	h := New(0).Middleware(next)

	rec := serve(h, http.MethodGet, "/?q=rice")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(HeaderFallback))

	next.failing = true
	rec = serve(h, http.MethodGet, "/?q=rice")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>pantry</p>", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(HeaderFallback))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2, next.calls)
}

func TestFailureWithoutCachedCopy(t *testing.T) {
	next := &flaky{failing: true}
	h := New(0).Middleware(next)

	rec := serve(h, http.MethodGet, "/items/x")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get(HeaderFallback))
}

func TestLiveResponseReplacesCachedCopy(t *testing.T) {
	next := &flaky{body: "old"}
	h := New(0).Middleware(next)

	serve(h, http.MethodGet, "/")
	next.body = "new"
	assert.Equal(t, "new", serve(h, http.MethodGet, "/").Body.String())

	next.failing = true
	assert.Equal(t, "new", serve(h, http.MethodGet, "/").Body.String())
}

func TestNonGetBypasses(t *testing.T) {
	next := &flaky{body: "ok"}
	c := New(0)
	h := c.Middleware(next)

	serve(h, http.MethodPost, "/items")
	assert.Equal(t, 0, c.Len())

	next.failing = true
	rec := serve(h, http.MethodPost, "/items")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestClientErrorsAreNotCached(t *testing.T) {
	c := New(0)
	h := c.Middleware(http.NotFoundHandler())

	rec := serve(h, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, c.Len())
}

func TestOldestEvicted(t *testing.T) {
	next := &flaky{body: "page"}
	c := New(2)
	h := c.Middleware(next)

	serve(h, http.MethodGet, "/a")
	serve(h, http.MethodGet, "/b")
	serve(h, http.MethodGet, "/c")
	assert.Equal(t, 2, c.Len())

	next.failing = true
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/a").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/c").Code)
}
