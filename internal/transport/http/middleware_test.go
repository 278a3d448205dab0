package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cimillas/asset-reservations/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
	rec := httptest.NewRecorder()

	RequestLogger(handler, zap.New(core)).ServeHTTP(rec, req)

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" {
		t.Fatalf("expected method in log, got %v", fields["method"])
	}
	if fields["path"] != "/reservations" {
		t.Fatalf("expected path in log, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Fatalf("expected status in log, got %v", fields["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id header")
	}
}

func TestRequestLogger_DefaultsTo200(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()

	RequestLogger(handler, zap.New(core)).ServeHTTP(rec, req)

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusOK) {
		t.Fatalf("expected default status 200 in log, got %v", fields["status"])
	}
	if fields["request_id"] != "req-42" {
		t.Fatalf("expected incoming request id to be kept, got %v", fields["request_id"])
	}
}

type staticResolver struct {
	p   domain.Principal
	err error
}

func (s staticResolver) Principal(string) (domain.Principal, error) { return s.p, s.err }

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	var seen domain.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = principalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAuth(staticResolver{err: errors.New("bad token")}, next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("passes principal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		want := domain.Principal{ID: "u-1", Role: domain.RoleBusinessUser}
		RequireAuth(staticResolver{p: want}, next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}
		if seen != want {
			t.Fatalf("expected principal %+v, got %+v", want, seen)
		}
	})
}
