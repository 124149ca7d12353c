package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriter(t *testing.T) {
	t.Run("defaults to 200 on first write", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		if _, err := rw.Write([]byte("hello")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %v, want %v", rw.statusCode, http.StatusOK)
		}
		if rw.bytes != 5 {
			t.Errorf("bytes = %v, want 5", rw.bytes)
		}
	})

	t.Run("keeps the first status code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusOK)

		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode = %v, want %v", rw.statusCode, http.StatusNotFound)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("recorded code = %v, want %v", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("accumulates body bytes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		_, _ = rw.Write([]byte("part one, "))
		_, _ = rw.Write([]byte("part two"))

		if rw.bytes != 18 {
			t.Errorf("bytes = %v, want 18", rw.bytes)
		}
	})
}

func TestLogging(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"jobID":"abc"}`))
	})

	wrapped := Logging(handler)

	req := httptest.NewRequest(http.MethodPost, "/processes/safe-to-netcdf/execution", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusCreated)
	}
	if w.Body.String() != `{"jobID":"abc"}` {
		t.Errorf("Body = %v, want the handler output untouched", w.Body.String())
	}
}
