// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Файловый сервер мониторит:
//   - OnlyOffice Document Server — HTTP checker к health endpoint (non-critical).
//     Document Server забирает документы по url из ответа на загрузку,
//     поэтому его недоступность не мешает работе файлового сервера.
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/prometheus/client_golang/prometheus"
)

// DocServerDependency — имя зависимости Document Server в метриках.
const DocServerDependency = "document-server"

// DephealthParams — параметры мониторинга зависимостей.
type DephealthParams struct {
	// Name — имя вершины графа текущего приложения (DEPHEALTH_NAME или владелец пода)
	Name string
	// Group — имя группы в метриках (FS_DEPHEALTH_GROUP)
	Group string
	// DocServerURL — базовый URL Document Server (FS_DOCSERVER_URL)
	DocServerURL string
	// HealthPath — путь health endpoint Document Server (FS_DOCSERVER_HEALTH_PATH)
	HealthPath string
	// CheckInterval — интервал проверки (FS_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(params DephealthParams, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(params, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	params DephealthParams,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(params, logger, dephealth.WithRegisterer(registerer))
}

// newDephealthService — внутренний конструктор.
func newDephealthService(
	params DephealthParams,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(params.DocServerURL),
		dephealth.WithHTTPHealthPath(params.HealthPath),
		dephealth.CheckInterval(params.CheckInterval),
		dephealth.Critical(false),
	}

	// Для https проверяем сертификат
	if parsed, err := url.Parse(params.DocServerURL); err == nil && parsed.Scheme == "https" {
		depOpts = append(depOpts, dephealth.WithHTTPTLSSkipVerify(false))
	}

	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP(DocServerDependency, depOpts...),
	)
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(params.Name, params.Group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (Document Server)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
