// Точка входа файлового сервера OnlyOffice — хранилища документов
// для Document Server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/goartstore/fileserver/internal/api/handlers"
	"github.com/bigkaa/goartstore/fileserver/internal/api/openapi"
	"github.com/bigkaa/goartstore/fileserver/internal/config"
	"github.com/bigkaa/goartstore/fileserver/internal/server"
	"github.com/bigkaa/goartstore/fileserver/internal/service"
	"github.com/bigkaa/goartstore/fileserver/internal/storage/filestore"
	"github.com/bigkaa/goartstore/fileserver/internal/storage/index"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Файловый сервер запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("upload_dir", cfg.UploadDir),
		slog.Int64("max_file_size", cfg.MaxFileSize),
	)

	// --- Инициализация компонентов ---

	// 1. Файловое хранилище
	store, err := filestore.New(cfg.UploadDir)
	if err != nil {
		logger.Error("Ошибка инициализации FileStore", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. In-memory индекс. Метаданные не переживают рестарт:
	// файлы прошлых запусков сверка покажет как orphaned_file.
	idx := index.New(logger)

	// 3. Сервисы
	fileSvc := service.NewFileService(service.FilesConfig{
		MaxFileSize:     cfg.MaxFileSize,
		InternalBaseURL: cfg.InternalBaseURL,
		ExternalBaseURL: cfg.ExternalBaseURL,
	}, store, idx, logger)

	// 4. Фоновые процессы
	ctx := context.Background()

	// 4.1 Reconciliation — стартовая и периодическая сверка
	reconcileSvc := service.NewReconcileService(store, idx, cfg.ReconcileInterval, logger)
	if report, rcErr := reconcileSvc.RunOnce(ctx); rcErr != nil {
		logger.Warn("Стартовая сверка не выполнена", slog.String("error", rcErr.Error()))
	} else if len(report.Issues) > 0 {
		logger.Warn("Стартовая сверка обнаружила расхождения",
			slog.Int("orphaned_files", report.Summary.OrphanedFiles),
			slog.Int("missing_files", report.Summary.MissingFiles),
		)
	}
	reconcileSvc.Start(ctx)

	// 4.2 topologymetrics — мониторинг Document Server
	var dephealthSvc *service.DephealthService
	if cfg.DocServerURL != "" {
		dephealthSvc = startDephealth(ctx, cfg, logger)
	} else {
		logger.Info("FS_DOCSERVER_URL не задан, мониторинг зависимостей выключен")
	}

	// 5. OpenAPI документ — источник списка endpoints для GET /
	doc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI документа", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Handlers
	healthHandler := handlers.NewHealthHandler(cfg.UploadDir, diskUsageFn(cfg.UploadDir), cfg.MaxFileSize)
	if dephealthSvc != nil {
		healthHandler.SetDependencies(dephealthSvc)
	}
	apiHandler := handlers.NewAPIHandler(
		handlers.NewFilesHandler(fileSvc),
		handlers.NewSystemHandler(openapi.Endpoints(doc), openapi.Spec()),
		handlers.NewMaintenanceHandler(reconcileSvc, logger),
		healthHandler,
	)

	// 7. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler)
	runErr := srv.Run()

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")

	reconcileSvc.Stop()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	logger.Info("Файловый сервер остановлен")
}

// startDephealth запускает мониторинг Document Server.
// Ошибки не фатальны: сервер работает и без мониторинга.
func startDephealth(ctx context.Context, cfg *config.Config, logger *slog.Logger) *service.DephealthService {
	name := dephealthName(cfg)

	dephealthSvc, err := service.NewDephealthService(service.DephealthParams{
		Name:          name,
		Group:         cfg.DephealthGroup,
		DocServerURL:  cfg.DocServerURL,
		HealthPath:    cfg.DocServerHealthPath,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		return nil
	}

	if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		return nil
	}

	logger.Info("topologymetrics запущен",
		slog.String("name", name),
		slog.String("docserver_url", cfg.DocServerURL),
		slog.String("check_interval", cfg.DephealthCheckInterval.String()),
	)
	return dephealthSvc
}
