// Пакет server — HTTP-сервер файлового сервиса с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/bigkaa/goartstore/fileserver/internal/api/errors"
	"github.com/bigkaa/goartstore/fileserver/internal/api/handlers"
	"github.com/bigkaa/goartstore/fileserver/internal/api/middleware"
	"github.com/bigkaa/goartstore/fileserver/internal/config"
)

// Server — HTTP-сервер файлового сервиса.
type Server struct {
	httpServer      *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, api *handlers.APIHandler) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, api),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer:      srv,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// allowedMethods — методы, разрешённые для cross-origin запросов.
var allowedMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// NewRouter строит chi-роутер со всеми маршрутами сервиса.
// CORS открыт для любых источников: Document Server и браузерный
// редактор обращаются к файлам с других доменов.
func NewRouter(logger *slog.Logger, api *handlers.APIHandler) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recoverer(logger))

	// Системные
	router.Get("/", api.System.Root)
	router.Get("/openapi.yaml", api.System.OpenAPISpec)
	router.Handle("/metrics", promhttp.Handler())

	// Health
	router.Get("/health", api.Health.Health)
	router.Get("/health/live", api.Health.HealthLive)
	router.Get("/health/ready", api.Health.HealthReady)

	// Файлы
	router.Post("/upload", api.Files.UploadFile)
	router.Get("/files", api.Files.ListFiles)
	router.Get("/files/{id}", api.Files.DownloadFile)
	router.Head("/files/{id}", api.Files.DownloadFile)
	router.Delete("/files/{id}", api.Files.DeleteFile)
	router.Get("/files/{id}/info", api.Files.GetFileInfo)

	// Обслуживание
	router.Post("/maintenance/reconcile", api.Maintenance.Reconcile)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.NotFound(w, "Маршрут "+r.URL.Path+" не найден")
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown с таймаутом из конфигурации.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve запускает сервер и останавливает его при отмене ctx.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", s.httpServer.Addr))

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Получен сигнал завершения")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
