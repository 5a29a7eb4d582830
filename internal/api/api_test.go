package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/filter"
	"github.com/erazemk/shramba/internal/pantry"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T) (*httptest.Server, *pantry.Service) {
	t.Helper()
	n := 0
	svc := &pantry.Service{
		DB:  db.NewTestDB(t),
		Now: func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("item-%d", n)
		},
	}
	server := httptest.NewServer(NewRouter(svc))
	t.Cleanup(server.Close)
	return server, svc
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestItemsAPIFlow(t *testing.T) {
	server, _ := setupTestServer(t)

	// Create item.
	resp := doJSON(t, "POST", server.URL+"/api/items", map[string]any{
		"name":     "Pasta",
		"tags":     []string{"grains"},
		"quantity": 1,
		"needed":   3,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decodeBody[filter.View](t, resp)
	if created.ID != "item-1" || !created.Low {
		t.Errorf("unexpected created item: %+v", created)
	}

	// Get it back.
	resp = doJSON(t, "GET", server.URL+"/api/items/item-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// Patch.
	resp = doJSON(t, "PATCH", server.URL+"/api/items/item-1", map[string]any{"quantity": 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decodeBody[filter.View](t, resp)
	if updated.Quantity != 3 || updated.Low {
		t.Errorf("unexpected updated item: %+v", updated)
	}

	// Adjust below zero clamps.
	resp = doJSON(t, "POST", server.URL+"/api/items/item-1/adjust", map[string]any{"delta": -10})
	adjusted := decodeBody[filter.View](t, resp)
	if adjusted.Quantity != 0 {
		t.Errorf("expected quantity 0, got %v", adjusted.Quantity)
	}

	// Delete, twice.
	for i := 0; i < 2; i++ {
		resp = doJSON(t, "DELETE", server.URL+"/api/items/item-1", nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete %d: expected 204, got %d", i, resp.StatusCode)
		}
	}

	resp = doJSON(t, "GET", server.URL+"/api/items/item-1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestCreateValidation(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, "POST", server.URL+"/api/items", map[string]any{"name": "", "quantity": -1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody[struct {
		Fields map[string]string `json:"fields"`
	}](t, resp)
	if body.Fields["name"] == "" {
		t.Errorf("expected name field error, got %v", body.Fields)
	}

	// Client-chosen ids are rejected.
	resp = doJSON(t, "POST", server.URL+"/api/items", map[string]any{"id": "mine", "name": "Rice"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for client id, got %d", resp.StatusCode)
	}
}

func TestPatchMissingItem(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, "PATCH", server.URL+"/api/items/nope", map[string]any{"name": "x"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListFilters(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, "POST", server.URL+"/api/seed", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed: expected 200, got %d", resp.StatusCode)
	}
	all := decodeBody[[]filter.View](t, resp)
	if len(all) != 4 {
		t.Fatalf("expected 4 seeded items, got %d", len(all))
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Milk", "Pasta", "Rice", "Tomato Sauce"}},
		{"?status=low", []string{"Pasta"}},
		{"?status=expired", []string{"Milk"}},
		{"?status=low&status=expired", []string{"Milk", "Pasta"}},
		{"?q=CAN", []string{"Tomato Sauce"}},
		{"?q=grains&status=low", []string{"Pasta"}},
	}
	for _, tt := range tests {
		resp := doJSON(t, "GET", server.URL+"/api/items"+tt.query, nil)
		views := decodeBody[[]filter.View](t, resp)
		var got []string
		for _, v := range views {
			got = append(got, v.Name)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("GET /api/items%s = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestTagsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, "GET", server.URL+"/api/tags", nil)
	if tags := decodeBody[[]string](t, resp); len(tags) != 0 {
		t.Errorf("expected empty tags, got %v", tags)
	}

	doJSON(t, "POST", server.URL+"/api/seed", nil)
	resp = doJSON(t, "GET", server.URL+"/api/tags", nil)
	tags := decodeBody[[]string](t, resp)
	if strings.Join(tags, ",") != "canned,dairy,grains" {
		t.Errorf("unexpected tags %v", tags)
	}
}

func TestImportEndpoint(t *testing.T) {
	server, svc := setupTestServer(t)

	body := `- {id: y1, name: Flour, category: Baking, quantity: 1, minThreshold: 5}`
	req, _ := http.NewRequest("POST", server.URL+"/api/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/yaml")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	item, _ := svc.Get(req.Context(), "y1")
	if item == nil || item.Tags[0] != "Baking" || *item.Needed != 5 {
		t.Errorf("unexpected imported item: %+v", item)
	}
}

func TestImageUpload(t *testing.T) {
	server, _ := setupTestServer(t)
	doJSON(t, "POST", server.URL+"/api/items", map[string]any{"name": "Beans"})

	var img bytes.Buffer
	png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8)))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("image", "beans.png")
	fw.Write(img.Bytes())
	mw.Close()

	req, _ := http.NewRequest("PUT", server.URL+"/api/items/item-1/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", server.URL+"/api/items/item-1/image", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}

	resp = doJSON(t, "GET", server.URL+"/api/items/missing/image", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestThemeEndpoints(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, "PUT", server.URL+"/api/settings/theme", map[string]string{"theme": "dark"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", server.URL+"/api/settings/theme", nil)
	if got := decodeBody[themeBody](t, resp); got.Theme != "dark" {
		t.Errorf("expected dark, got %q", got.Theme)
	}

	resp = doJSON(t, "PUT", server.URL+"/api/settings/theme", map[string]string{"theme": "neon"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStorageUnavailable(t *testing.T) {
	server, svc := setupTestServer(t)
	svc.DB.Close()

	resp := doJSON(t, "GET", server.URL+"/api/items", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, "GET", server.URL+"/api/owners", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAdjustOverflowRejected(t *testing.T) {
	server, svc := setupTestServer(t)
	doJSON(t, "POST", server.URL+"/api/items", map[string]any{"name": "Salt", "quantity": 1e308})

	resp := doJSON(t, "POST", server.URL+"/api/items/item-1/adjust", map[string]any{"delta": 1e308})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", server.URL+"/api/items", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	views := decodeBody[[]filter.View](t, resp)
	if len(views) != 1 || views[0].Quantity != 1e308 {
		t.Errorf("unexpected listing after rejected adjust: %+v", views)
	}

	item, _ := svc.Get(resp.Request.Context(), "item-1")
	if item.Quantity != 1e308 {
		t.Errorf("expected stored quantity unchanged, got %v", item.Quantity)
	}
}

func TestNotFoundBody(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, "POST", server.URL+"/api/items/nope/adjust", map[string]any{"delta": 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["error"] != "item not found" {
		t.Errorf("unexpected error body %v", body)
	}
}

func TestJSONResponseEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonResponse(rec, http.StatusOK, map[string]float64{"quantity": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "failed to encode response") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
