package config

import (
	"log/slog"
	"testing"
	"time"
)

// allFSEnvVars — все переменные окружения, читаемые Load.
var allFSEnvVars = []string{
	"FS_PORT", "FS_UPLOAD_DIR", "FS_INTERNAL_BASE_URL", "FS_EXTERNAL_BASE_URL",
	"FS_MAX_FILE_SIZE", "FS_LOG_LEVEL", "FS_LOG_FORMAT",
	"FS_HTTP_READ_TIMEOUT", "FS_HTTP_WRITE_TIMEOUT", "FS_HTTP_IDLE_TIMEOUT",
	"FS_SHUTDOWN_TIMEOUT", "FS_RECONCILE_INTERVAL", "FS_DOCSERVER_URL", "FS_DOCSERVER_HEALTH_PATH",
	"FS_DEPHEALTH_CHECK_INTERVAL", "FS_DEPHEALTH_GROUP", "DEPHEALTH_NAME",
}

// clearAllFSEnvVars сбрасывает все переменные FS_* на время теста.
// Пустое значение Load трактует как отсутствующее.
func clearAllFSEnvVars(t *testing.T) {
	t.Helper()
	for _, k := range allFSEnvVars {
		t.Setenv(k, "")
	}
}

// setEnvVars устанавливает переменные окружения на время теста.
func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearAllFSEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port: ожидалось 8000, получено %d", cfg.Port)
	}
	if cfg.UploadDir != "/app/uploads" {
		t.Errorf("UploadDir: ожидалось '/app/uploads', получено %q", cfg.UploadDir)
	}
	if cfg.InternalBaseURL != "http://fileserver:8000" {
		t.Errorf("InternalBaseURL: получено %q", cfg.InternalBaseURL)
	}
	if cfg.ExternalBaseURL != "http://localhost:8081" {
		t.Errorf("ExternalBaseURL: получено %q", cfg.ExternalBaseURL)
	}
	if cfg.MaxFileSize != 52428800 {
		t.Errorf("MaxFileSize: ожидалось 52428800, получено %d", cfg.MaxFileSize)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось INFO, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось 'json', получено %q", cfg.LogFormat)
	}
	if cfg.HTTPReadTimeout != 5*time.Minute {
		t.Errorf("HTTPReadTimeout: ожидалось 5m, получено %v", cfg.HTTPReadTimeout)
	}
	if cfg.HTTPWriteTimeout != 5*time.Minute {
		t.Errorf("HTTPWriteTimeout: ожидалось 5m, получено %v", cfg.HTTPWriteTimeout)
	}
	if cfg.HTTPIdleTimeout != 2*time.Minute {
		t.Errorf("HTTPIdleTimeout: ожидалось 2m, получено %v", cfg.HTTPIdleTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 10s, получено %v", cfg.ShutdownTimeout)
	}
	if cfg.ReconcileInterval != 0 {
		t.Errorf("ReconcileInterval: ожидалось 0, получено %v", cfg.ReconcileInterval)
	}
	if cfg.DocServerURL != "" {
		t.Errorf("DocServerURL: ожидалась пустая строка, получено %q", cfg.DocServerURL)
	}
	if cfg.DocServerHealthPath != "/healthcheck" {
		t.Errorf("DocServerHealthPath: ожидалось '/healthcheck', получено %q", cfg.DocServerHealthPath)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval: ожидалось 15s, получено %v", cfg.DephealthCheckInterval)
	}
	if cfg.DephealthGroup != "onlyoffice" {
		t.Errorf("DephealthGroup: ожидалось 'onlyoffice', получено %q", cfg.DephealthGroup)
	}
}

func TestLoad_AllCustomValues(t *testing.T) {
	clearAllFSEnvVars(t)
	setEnvVars(t, map[string]string{
		"FS_PORT":                     "9000",
		"FS_UPLOAD_DIR":               "/data/uploads",
		"FS_INTERNAL_BASE_URL":        "http://files.internal:9000/",
		"FS_EXTERNAL_BASE_URL":        "https://office.example.com/files",
		"FS_MAX_FILE_SIZE":            "1048576",
		"FS_LOG_LEVEL":                "debug",
		"FS_LOG_FORMAT":               "text",
		"FS_HTTP_READ_TIMEOUT":        "20s",
		"FS_HTTP_WRITE_TIMEOUT":       "45s",
		"FS_HTTP_IDLE_TIMEOUT":        "90s",
		"FS_SHUTDOWN_TIMEOUT":         "3s",
		"FS_RECONCILE_INTERVAL":       "1h",
		"FS_DOCSERVER_URL":            "http://documentserver:80",
		"FS_DOCSERVER_HEALTH_PATH":    "/health",
		"FS_DEPHEALTH_CHECK_INTERVAL": "5s",
		"FS_DEPHEALTH_GROUP":          "office-stack",
		"DEPHEALTH_NAME":              "fileserver",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port: ожидалось 9000, получено %d", cfg.Port)
	}
	if cfg.UploadDir != "/data/uploads" {
		t.Errorf("UploadDir: получено %q", cfg.UploadDir)
	}
	// Завершающий слэш отбрасывается
	if cfg.InternalBaseURL != "http://files.internal:9000" {
		t.Errorf("InternalBaseURL: получено %q", cfg.InternalBaseURL)
	}
	if cfg.ExternalBaseURL != "https://office.example.com/files" {
		t.Errorf("ExternalBaseURL: получено %q", cfg.ExternalBaseURL)
	}
	if cfg.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize: ожидалось 1048576, получено %d", cfg.MaxFileSize)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось DEBUG, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось 'text', получено %q", cfg.LogFormat)
	}
	if cfg.HTTPReadTimeout != 20*time.Second {
		t.Errorf("HTTPReadTimeout: ожидалось 20s, получено %v", cfg.HTTPReadTimeout)
	}
	if cfg.HTTPWriteTimeout != 45*time.Second {
		t.Errorf("HTTPWriteTimeout: ожидалось 45s, получено %v", cfg.HTTPWriteTimeout)
	}
	if cfg.HTTPIdleTimeout != 90*time.Second {
		t.Errorf("HTTPIdleTimeout: ожидалось 90s, получено %v", cfg.HTTPIdleTimeout)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 3s, получено %v", cfg.ShutdownTimeout)
	}
	if cfg.ReconcileInterval != time.Hour {
		t.Errorf("ReconcileInterval: ожидалось 1h, получено %v", cfg.ReconcileInterval)
	}
	if cfg.DocServerURL != "http://documentserver:80" {
		t.Errorf("DocServerURL: получено %q", cfg.DocServerURL)
	}
	if cfg.DocServerHealthPath != "/health" {
		t.Errorf("DocServerHealthPath: получено %q", cfg.DocServerHealthPath)
	}
	if cfg.DephealthCheckInterval != 5*time.Second {
		t.Errorf("DephealthCheckInterval: ожидалось 5s, получено %v", cfg.DephealthCheckInterval)
	}
	if cfg.DephealthGroup != "office-stack" {
		t.Errorf("DephealthGroup: получено %q", cfg.DephealthGroup)
	}
	if cfg.DephealthName != "fileserver" {
		t.Errorf("DephealthName: получено %q", cfg.DephealthName)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ноль", "0"},
		{"выше диапазона", "70000"},
		{"не число", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAllFSEnvVars(t)
			t.Setenv("FS_PORT", tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка для FS_PORT=%s", tt.value)
			}
		})
	}
}

func TestLoad_InvalidMaxFileSize(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"не число", "abc"},
		{"нулевое", "0"},
		{"отрицательное", "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAllFSEnvVars(t)
			t.Setenv("FS_MAX_FILE_SIZE", tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка для FS_MAX_FILE_SIZE=%s", tt.value)
			}
		})
	}
}

func TestLoad_InvalidURL(t *testing.T) {
	urlVars := []string{"FS_INTERNAL_BASE_URL", "FS_EXTERNAL_BASE_URL", "FS_DOCSERVER_URL"}
	values := []string{"fileserver:8000", "ftp://host", "http://"}

	for _, varName := range urlVars {
		for _, value := range values {
			t.Run(varName+"="+value, func(t *testing.T) {
				clearAllFSEnvVars(t)
				t.Setenv(varName, value)

				if _, err := Load(); err == nil {
					t.Errorf("ожидалась ошибка для %s=%s", varName, value)
				}
			})
		}
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	durationVars := []string{
		"FS_HTTP_READ_TIMEOUT", "FS_HTTP_WRITE_TIMEOUT", "FS_HTTP_IDLE_TIMEOUT",
		"FS_SHUTDOWN_TIMEOUT", "FS_RECONCILE_INTERVAL", "FS_DEPHEALTH_CHECK_INTERVAL",
	}

	for _, varName := range durationVars {
		t.Run(varName, func(t *testing.T) {
			clearAllFSEnvVars(t)
			t.Setenv(varName, "not-a-duration")

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка для невалидного %s", varName)
			}
		})
	}
}

func TestLoad_NegativeReconcileInterval(t *testing.T) {
	clearAllFSEnvVars(t)
	t.Setenv("FS_RECONCILE_INTERVAL", "-1m")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для отрицательного FS_RECONCILE_INTERVAL")
	}
}

func TestLoad_InvalidDocServerHealthPath(t *testing.T) {
	clearAllFSEnvVars(t)
	t.Setenv("FS_DOCSERVER_HEALTH_PATH", "healthcheck")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для пути без ведущего '/'")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearAllFSEnvVars(t)
	t.Setenv("FS_LOG_LEVEL", "invalid")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для невалидного FS_LOG_LEVEL")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	clearAllFSEnvVars(t)
	t.Setenv("FS_LOG_FORMAT", "yaml")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для невалидного FS_LOG_FORMAT")
	}
}

func TestLoad_ValidLogLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			clearAllFSEnvVars(t)
			t.Setenv("FS_LOG_LEVEL", tt.input)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if cfg.LogLevel != tt.expected {
				t.Errorf("LogLevel: ожидалось %v, получено %v", tt.expected, cfg.LogLevel)
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Fatal("SetupLogger вернул nil")
			}
		})
	}
}
