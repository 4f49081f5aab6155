// health.go — обработчики health endpoints: /health и Kubernetes probes.
package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/fileserver/internal/config"
)

// Статусы readiness-проверок.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// DependencyHealth — состояние внешних зависимостей (topologymetrics).
// Ключ — "dependency:host:port", значение — true если проверка успешна.
type DependencyHealth interface {
	Health() map[string]bool
}

// DiskUsageFunc возвращает ёмкость файловой системы директории загрузок.
type DiskUsageFunc func() (total, used, available int64, err error)

// healthResponse — ответ /health и /health/live.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// checkResult — результат одной readiness-проверки.
type checkResult struct {
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	TotalBytes     int64  `json:"total_bytes,omitempty"`
	UsedBytes      int64  `json:"used_bytes,omitempty"`
	AvailableBytes int64  `json:"available_bytes,omitempty"`
}

// readinessResponse — ответ /health/ready.
type readinessResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	Service   string                 `json:"service"`
	Checks    map[string]checkResult `json:"checks"`
}

// HealthHandler реализует /health, /health/live, /health/ready.
type HealthHandler struct {
	version string
	// uploadDir — директория загрузок (проверка записи)
	uploadDir string
	// diskUsage — ёмкость диска; nil — проверка не настроена
	diskUsage DiskUsageFunc
	// minFreeBytes — минимум свободного места для готовности (лимит одного файла)
	minFreeBytes int64
	// deps — мониторинг Document Server; nil — мониторинг выключен
	deps DependencyHealth
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(uploadDir string, diskUsage DiskUsageFunc, minFreeBytes int64) *HealthHandler {
	return &HealthHandler{
		version:      config.Version,
		uploadDir:    uploadDir,
		diskUsage:    diskUsage,
		minFreeBytes: minFreeBytes,
	}
}

// SetDependencies подключает состояние зависимостей к readiness.
// Недоступный Document Server даёт degraded, но не снимает готовность.
func (h *HealthHandler) SetDependencies(deps DependencyHealth) {
	h.deps = deps
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.status("healthy"))
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Зависимости не проверяет.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.status(statusOK))
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет запись в директорию загрузок, свободное место и,
// если мониторинг включён, доступность Document Server.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]checkResult{
		"filesystem": h.checkFilesystem(),
		"disk":       h.checkDisk(),
	}
	if h.deps != nil {
		checks["document_server"] = h.checkDependencies()
	}

	overall := statusOK
	httpStatus := http.StatusOK
	for _, c := range checks {
		switch c.Status {
		case statusFail:
			overall = statusFail
			httpStatus = http.StatusServiceUnavailable
		case statusDegraded:
			if overall == statusOK {
				overall = statusDegraded
			}
		}
	}

	writeJSON(w, httpStatus, readinessResponse{
		Status:    overall,
		Timestamp: formatTime(time.Now()),
		Version:   h.version,
		Service:   config.ServiceName,
		Checks:    checks,
	})
}

func (h *HealthHandler) status(status string) healthResponse {
	return healthResponse{
		Status:    status,
		Timestamp: formatTime(time.Now()),
		Version:   h.version,
		Service:   config.ServiceName,
	}
}

// checkFilesystem проверяет доступность директории загрузок на запись.
// Служебный файл начинается с точки и не виден сверке.
func (h *HealthHandler) checkFilesystem() checkResult {
	testFile := filepath.Join(h.uploadDir, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return checkResult{
			Status:  statusFail,
			Message: "Директория загрузок недоступна для записи: " + err.Error(),
		}
	}
	_ = os.Remove(testFile)

	return checkResult{Status: statusOK}
}

// checkDisk проверяет, что на диске поместится хотя бы один файл максимального размера.
func (h *HealthHandler) checkDisk() checkResult {
	if h.diskUsage == nil {
		return checkResult{Status: statusOK, Message: "Проверка не настроена"}
	}

	total, used, available, err := h.diskUsage()
	if err != nil {
		return checkResult{
			Status:  statusFail,
			Message: "Ошибка получения ёмкости диска: " + err.Error(),
		}
	}

	result := checkResult{
		Status:         statusOK,
		TotalBytes:     total,
		UsedBytes:      used,
		AvailableBytes: available,
	}
	if available < h.minFreeBytes {
		result.Status = statusFail
		result.Message = "Недостаточно свободного места для загрузки файла максимального размера"
	}
	return result
}

// checkDependencies сводит состояние зависимостей в одну проверку.
// До первой проверки SDK список пуст: это не считается ошибкой.
func (h *HealthHandler) checkDependencies() checkResult {
	var failed []string
	for key, ok := range h.deps.Health() {
		if !ok {
			failed = append(failed, key)
		}
	}
	if len(failed) == 0 {
		return checkResult{Status: statusOK}
	}
	sort.Strings(failed)
	return checkResult{
		Status:  statusDegraded,
		Message: "Недоступны: " + strings.Join(failed, ", "),
	}
}
