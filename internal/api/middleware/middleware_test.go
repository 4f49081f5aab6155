package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newTestRouter собирает chi-роутер с middleware и парой маршрутов.
func newTestRouter(logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware())
	r.Use(RequestLogger(logger))
	r.Get("/files/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/upload", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

// TestMetricsMiddleware_RoutePattern проверяет, что метка path — шаблон маршрута.
func TestMetricsMiddleware_RoutePattern(t *testing.T) {
	router := newTestRouter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/files/{id}", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/files/"+id, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("ожидалось 3 запроса с меткой /files/{id}, получено %v", got)
	}
}

// TestMetricsMiddleware_Unmatched проверяет метку для неизвестного пути.
func TestMetricsMiddleware_Unmatched(t *testing.T) {
	router := newTestRouter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
	before := testutil.ToFloat64(counter)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("ожидался 1 запрос с меткой %s, получено %v", unmatchedRoute, got)
	}
}

// TestRequestLogger_Levels проверяет уровень записи в зависимости от статуса.
func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		wantLevel string
	}{
		{"5xx", http.MethodPost, "/upload", "ERROR"},
		{"4xx", http.MethodGet, "/files/x", "WARN"},
		{"проба", http.MethodGet, "/health", "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			router := newTestRouter(logger)

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("лог не является JSON: %v (%s)", err, buf.String())
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level: ожидалось %s, получено %v", tt.wantLevel, entry["level"])
			}
			if entry["path"] != tt.path {
				t.Errorf("path: ожидалось %s, получено %v", tt.path, entry["path"])
			}
		})
	}
}

// TestRequestLogger_BytesWritten проверяет подсчёт размера ответа.
func TestRequestLogger_BytesWritten(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	router := newTestRouter(logger)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("лог не является JSON: %v", err)
	}
	if entry["bytes"] != float64(2) {
		t.Errorf("bytes: ожидалось 2, получено %v", entry["bytes"])
	}
}

func TestRecoverer(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	r := chi.NewRouter()
	r.Use(Recoverer(logger))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("сбой")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("ожидался 500, получен %d", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("ошибка декодирования: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("ожидался INTERNAL_ERROR, получен %s", body.Error.Code)
	}
	if !bytes.Contains(logs.Bytes(), []byte("сбой")) {
		t.Errorf("паника должна попасть в лог: %s", logs.String())
	}
}
