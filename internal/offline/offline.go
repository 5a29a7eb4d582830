// Package offline serves the last good copy of a page when the live handler
// fails. Successful GET responses are remembered per URL; a later 5xx for the
// same URL is replaced by the remembered response.
package offline

import (
	"bytes"
	"log/slog"
	"net/http"
	"sync"
)

// HeaderFallback is set on responses served from the cache.
const HeaderFallback = "X-Offline-Fallback"

// DefaultCapacity is the number of URLs kept when New is given zero.
const DefaultCapacity = 128

type entry struct {
	status int
	header http.Header
	body   []byte
}

// Cache holds recent successful responses keyed by request URL. Once full,
// the oldest URL is evicted first.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry
	order    []string
}

// New returns a cache that keeps at most capacity URLs.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*entry),
	}
}

// Len returns the number of cached URLs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(key string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key]
}

func (c *Cache) put(key string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = e
}

// Middleware buffers GET responses from next. 2xx responses are cached and
// written through; 5xx responses are swapped for the cached copy when one
// exists. Other methods pass straight through.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.RequestURI()
		rec := &recorder{header: make(http.Header), status: http.StatusOK}
		next.ServeHTTP(rec, r)

		switch {
		case rec.status >= 200 && rec.status < 300:
			c.put(key, &entry{status: rec.status, header: rec.header.Clone(), body: bytes.Clone(rec.body.Bytes())})
		case rec.status >= 500:
			if cached := c.get(key); cached != nil {
				slog.Warn("serving cached response", "path", key, "status", rec.status)
				copyHeader(w.Header(), cached.header)
				w.Header().Set(HeaderFallback, "1")
				w.WriteHeader(cached.status)
				w.Write(cached.body)
				return
			}
		}

		copyHeader(w.Header(), rec.header)
		w.WriteHeader(rec.status)
		w.Write(rec.body.Bytes())
	})
}

func copyHeader(dst, src http.Header) {
	for k, v := range src {
		dst[k] = append([]string(nil), v...)
	}
}

// recorder buffers a response so it can be inspected before it is sent.
type recorder struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}
