package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

const closePattern = "/api/v1/work-orders/{orderId}/close"

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"close", http.MethodPost, "/api/v1/work-orders/{orderId}/close", criticalIdempotencyTTL, true},
		{"cancel", http.MethodPost, "/api/v1/work-orders/{orderId}/cancel", criticalIdempotencyTTL, true},
		{"phase3", http.MethodPut, "/api/v1/work-orders/{orderId}/phase3", defaultIdempotencyTTL, true},
		{"create", http.MethodPost, "/api/v1/work-orders", 0, false},
		{"work log", http.MethodPost, "/api/v1/work-orders/{orderId}/work-log", 0, false},
		{"phase2", http.MethodPut, "/api/v1/work-orders/{orderId}/phase2", 0, false},
		{"close wrong method", http.MethodGet, "/api/v1/work-orders/{orderId}/close", 0, false},
		{"archive entity", http.MethodPost, "/api/v1/archive/{kind}/{id}", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/work-orders/7/close", closePattern, strings.NewReader(`{"foo":"bar"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/work-orders/7/close", closePattern, strings.NewReader(`{"foo":"bar"}`))
	req.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected first response 202 got %d", resp.Code)
	}

	replay := requestWithPattern(http.MethodPost, "/api/v1/work-orders/7/close", closePattern, strings.NewReader(`{"foo":"bar"}`))
	replay.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected replay status 202 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
	if rec.Header().Get(replayedHeader) != "true" {
		t.Fatalf("replayed response should be marked")
	}
	if resp.Header().Get(replayedHeader) != "" {
		t.Fatalf("first response must not be marked as replay")
	}
}

func TestIdempotencyDoesNotRecordServerFailures(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	statuses := []int{http.StatusServiceUnavailable, http.StatusOK}
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statuses[calls])
		calls++
	})

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/work-orders/7/cancel", "/api/v1/work-orders/{orderId}/cancel", strings.NewReader(`{}`))
		req.Header.Set(idempotencyHeader, "retry-me")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Fatalf("expected retry after 503 to reach the handler, got %d calls", calls)
	}
	if len(store.data) != 1 {
		t.Fatalf("expected only the successful response recorded, got %d", len(store.data))
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/work-orders/7/close", closePattern, strings.NewReader(`{"foo":"bar"}`))
	req.Header.Set("Idempotency-Key", "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := requestWithPattern(http.MethodPost, "/api/v1/work-orders/7/close", closePattern, strings.NewReader(`{"foo":"diff"}`))
	replay.Header.Set("Idempotency-Key", "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyScopeSeparatesClients(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	for _, client := range []string{"bay-1", "bay-2"} {
		req := requestWithPattern(http.MethodPost, "/api/v1/work-orders/7/close", closePattern, strings.NewReader(`{}`))
		req = req.WithContext(WithClientID(req.Context(), client))
		req.Header.Set("Idempotency-Key", "same")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Fatalf("expected each client to execute once, got %d calls", calls)
	}
	if len(store.data) != 2 {
		t.Fatalf("expected two stored records, got %d", len(store.data))
	}
}

func TestIdempotencySkipsUnlistedRoutes(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPut, "/api/v1/work-orders/7/phase2", "/api/v1/work-orders/{orderId}/phase2", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if !called || resp.Code != http.StatusOK {
		t.Fatalf("expected passthrough, called=%v code=%d", called, resp.Code)
	}
	if len(store.data) != 0 {
		t.Fatalf("nothing should be stored for unlisted routes")
	}
}

func TestIdempotencyDropsUnreadableRecord(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/work-orders/7/close", closePattern, strings.NewReader(`{}`))
	req.Header.Set(idempotencyHeader, "garbled")
	store.data[store.IdempotencyKey(buildScope(req), "garbled")] = "not-json"

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if calls != 1 || resp.Code != http.StatusOK {
		t.Fatalf("expected handler to run once, calls=%d code=%d", calls, resp.Code)
	}
	stored := store.data[store.IdempotencyKey(buildScope(req), "garbled")]
	if stored == "not-json" || stored == "" {
		t.Fatalf("expected record to be replaced, got %q", stored)
	}
}
