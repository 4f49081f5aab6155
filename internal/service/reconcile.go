// reconcile.go — сверка директории загрузок с in-memory индексом.
//
// Сверка только сообщает о расхождениях и ничего не исправляет:
//   - orphaned_file: файл на диске без записи в индексе (например, после рестарта)
//   - missing_file: запись в индексе, файла на диске нет
//   - size_mismatch: размер на диске не совпадает с записью
//   - checksum_mismatch: SHA-256 на диске не совпадает с записью
//
// Служебные (.*) и временные (*.tmp) файлы пропускаются.
// Периодический запуск — FS_RECONCILE_INTERVAL, ручной — POST /maintenance/reconcile.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/fileserver/internal/storage/filestore"
	"github.com/bigkaa/goartstore/fileserver/internal/storage/index"
)

// ErrReconcileInProgress — сверка уже выполняется.
var ErrReconcileInProgress = errors.New("сверка уже выполняется")

// Prometheus метрики сверки
var (
	// reconcileRunsTotal — количество запусков сверки.
	reconcileRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fs_reconcile_runs_total",
		Help: "Общее количество запусков сверки",
	})

	// reconcileIssuesTotal — количество обнаруженных проблем по типу.
	reconcileIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fs_reconcile_issues_total",
		Help: "Общее количество расхождений, обнаруженных сверкой",
	}, []string{"type"})

	// reconcileDurationSeconds — длительность выполнения сверки.
	reconcileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fs_reconcile_duration_seconds",
		Help:    "Длительность выполнения сверки в секундах",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	})
)

// IssueType — тип расхождения.
type IssueType string

const (
	IssueOrphanedFile     IssueType = "orphaned_file"
	IssueMissingFile      IssueType = "missing_file"
	IssueSizeMismatch     IssueType = "size_mismatch"
	IssueChecksumMismatch IssueType = "checksum_mismatch"
)

// Issue — одно обнаруженное расхождение.
type Issue struct {
	Type        IssueType `json:"type"`
	FileID      string    `json:"file_id,omitempty"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
}

// Summary — количество расхождений по типам.
type Summary struct {
	OK                 int `json:"ok"`
	OrphanedFiles      int `json:"orphaned_files"`
	MissingFiles       int `json:"missing_files"`
	SizeMismatches     int `json:"size_mismatches"`
	ChecksumMismatches int `json:"checksum_mismatches"`
}

// Report — результат одного прогона сверки.
type Report struct {
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	FilesChecked int       `json:"files_checked"`
	Issues       []Issue   `json:"issues"`
	Summary      Summary   `json:"summary"`
}

// ReconcileService — сервис сверки диска и индекса.
type ReconcileService struct {
	store    *filestore.FileStore
	idx      *index.Index
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex // защита от параллельного запуска
	inProcess bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewReconcileService создаёт сервис сверки.
// interval == 0 — фоновый тикер не запускается, доступен только RunOnce.
func NewReconcileService(
	store *filestore.FileStore,
	idx *index.Index,
	interval time.Duration,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		store:    store,
		idx:      idx,
		interval: interval,
		logger:   logger.With(slog.String("component", "reconcile")),
	}
}

// Start запускает фоновую горутину сверки с периодическим тикером.
// При нулевом интервале ничего не делает.
func (rs *ReconcileService) Start(ctx context.Context) {
	if rs.interval <= 0 {
		rs.logger.Info("Периодическая сверка выключена")
		return
	}

	rsCtx, cancel := context.WithCancel(ctx)
	rs.cancel = cancel
	rs.done = make(chan struct{})

	go rs.run(rsCtx)

	rs.logger.Info("Периодическая сверка запущена",
		slog.String("interval", rs.interval.String()),
	)
}

// Stop останавливает фоновую сверку и дожидается завершения горутины.
func (rs *ReconcileService) Stop() {
	if rs.cancel == nil {
		return
	}
	rs.cancel()
	<-rs.done
	rs.logger.Info("Периодическая сверка остановлена")
}

// isInProgress возвращает true, если сверка выполняется.
func (rs *ReconcileService) isInProgress() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.inProcess
}

// run — основной цикл фоновой горутины.
func (rs *ReconcileService) run(ctx context.Context) {
	defer close(rs.done)

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rs.RunOnce(ctx); err != nil && !errors.Is(err, ErrReconcileInProgress) {
				rs.logger.Warn("Сверка прервана", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce выполняет один прогон сверки.
// Если сверка уже выполняется, возвращает ErrReconcileInProgress.
// Отмена ctx прерывает подсчёт checksum и возвращает ctx.Err().
func (rs *ReconcileService) RunOnce(ctx context.Context) (*Report, error) {
	rs.mu.Lock()
	if rs.inProcess {
		rs.mu.Unlock()
		return nil, ErrReconcileInProgress
	}
	rs.inProcess = true
	rs.mu.Unlock()

	defer func() {
		rs.mu.Lock()
		rs.inProcess = false
		rs.mu.Unlock()
	}()

	startedAt := time.Now().UTC()
	rs.logger.Debug("Сверка начата")

	issues, checked, err := rs.reconcile(ctx)
	if err != nil {
		return nil, err
	}

	completedAt := time.Now().UTC()
	duration := completedAt.Sub(startedAt)

	summary := Summary{}
	for _, issue := range issues {
		switch issue.Type {
		case IssueOrphanedFile:
			summary.OrphanedFiles++
		case IssueMissingFile:
			summary.MissingFiles++
		case IssueSizeMismatch:
			summary.SizeMismatches++
		case IssueChecksumMismatch:
			summary.ChecksumMismatches++
		}
		reconcileIssuesTotal.WithLabelValues(string(issue.Type)).Inc()
	}
	summary.OK = max(checked-len(issues), 0)

	reconcileRunsTotal.Inc()
	reconcileDurationSeconds.Observe(duration.Seconds())

	level := slog.LevelInfo
	if len(issues) > 0 {
		level = slog.LevelWarn
	}
	rs.logger.Log(ctx, level, "Сверка завершена",
		slog.Int("files_checked", checked),
		slog.Int("orphaned_files", summary.OrphanedFiles),
		slog.Int("missing_files", summary.MissingFiles),
		slog.Int("size_mismatches", summary.SizeMismatches),
		slog.Int("checksum_mismatches", summary.ChecksumMismatches),
		slog.Duration("duration", duration),
	)

	return &Report{
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
		FilesChecked: checked,
		Issues:       issues,
		Summary:      summary,
	}, nil
}

// reconcile сравнивает содержимое директории с индексом.
// Возвращает расхождения и количество проверенных объектов
// (объединение имён на диске и в индексе).
func (rs *ReconcileService) reconcile(ctx context.Context) ([]Issue, int, error) {
	issues := []Issue{}

	names, err := rs.store.ListNames()
	if err != nil {
		return nil, 0, err
	}
	onDisk := make(map[string]bool, len(names))
	for _, name := range names {
		onDisk[name] = true
	}

	indexed := rs.idx.StorageNames()
	checked := len(indexed)

	// 1. Файлы на диске без записи в индексе
	for _, name := range names {
		if _, ok := indexed[name]; !ok {
			checked++
			issues = append(issues, Issue{
				Type:        IssueOrphanedFile,
				Path:        name,
				Description: "Файл на диске без записи в индексе",
			})
		}
	}

	// 2. Записи индекса: наличие, размер, checksum.
	// Обход в порядке имён для стабильного отчёта.
	indexedNames := make([]string, 0, len(indexed))
	for name := range indexed {
		indexedNames = append(indexedNames, name)
	}
	sort.Strings(indexedNames)

	for _, name := range indexedNames {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		fileID := indexed[name]
		if !onDisk[name] {
			issues = append(issues, Issue{
				Type:        IssueMissingFile,
				FileID:      fileID,
				Path:        name,
				Description: "Запись в индексе без файла на диске",
			})
			continue
		}

		// Запись могла быть удалена после снимка StorageNames
		rec := rs.idx.Get(fileID)
		if rec == nil {
			continue
		}

		actualSize, sizeErr := rs.store.FileSize(name)
		if sizeErr != nil {
			if errors.Is(sizeErr, filestore.ErrNotFound) {
				// Удалён параллельным DELETE между ListNames и проверкой
				continue
			}
			rs.logger.Warn("Ошибка получения размера файла",
				slog.String("file", name),
				slog.String("error", sizeErr.Error()),
			)
			continue
		}

		if actualSize != rec.Size {
			issues = append(issues, Issue{
				Type:        IssueSizeMismatch,
				FileID:      fileID,
				Path:        name,
				Description: "Размер файла на диске не совпадает с индексом",
			})
			continue // при разном размере checksum заведомо другой
		}

		actualChecksum, csErr := rs.store.ComputeChecksum(name)
		if csErr != nil {
			rs.logger.Warn("Ошибка вычисления checksum",
				slog.String("file", name),
				slog.String("error", csErr.Error()),
			)
			continue
		}

		if actualChecksum != rec.Checksum {
			issues = append(issues, Issue{
				Type:        IssueChecksumMismatch,
				FileID:      fileID,
				Path:        name,
				Description: "Checksum файла на диске не совпадает с индексом",
			})
		}
	}

	return issues, checked, nil
}
