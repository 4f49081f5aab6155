// Пакет index — потокобезопасный in-memory индекс метаданных файлов.
//
// Индекс заполняется синхронно при загрузке (Add) и очищается при удалении
// (Remove). Не персистентный: при рестарте процесса все записи теряются,
// файлы на диске остаются и обнаруживаются reconciliation как orphaned.
package index

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/bigkaa/goartstore/fileserver/internal/domain/model"
)

// Index — потокобезопасный in-memory индекс метаданных.
// Использует sync.RWMutex для конкурентного чтения и
// эксклюзивной записи. Наружу отдаются только копии записей.
type Index struct {
	mu     sync.RWMutex
	files  map[string]*model.FileRecord // file_id → record
	logger *slog.Logger
}

// New создаёт пустой индекс.
func New(logger *slog.Logger) *Index {
	return &Index{
		files:  make(map[string]*model.FileRecord),
		logger: logger.With(slog.String("component", "index")),
	}
}

// Add добавляет запись в индекс.
// Если запись с таким ID уже существует, она будет перезаписана.
func (idx *Index) Add(rec *model.FileRecord) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	copied := *rec
	idx.files[rec.ID] = &copied

	idx.logger.Debug("Запись добавлена в индекс",
		slog.String("file_id", rec.ID),
		slog.Int("files", len(idx.files)),
	)
}

// Remove удаляет запись по file_id.
// Возвращает true, если запись была найдена и удалена.
func (idx *Index) Remove(fileID string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.files[fileID]; !ok {
		return false
	}
	delete(idx.files, fileID)
	return true
}

// Get возвращает копию записи по file_id или nil, если записи нет.
func (idx *Index) Get(fileID string) *model.FileRecord {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rec, ok := idx.files[fileID]
	if !ok {
		return nil
	}

	copied := *rec
	return &copied
}

// List возвращает копии всех записей.
// Порядок: новые первыми, при равном времени — по file_id.
func (idx *Index) List() []*model.FileRecord {
	idx.mu.RLock()
	result := make([]*model.FileRecord, 0, len(idx.files))
	for _, rec := range idx.files {
		copied := *rec
		result = append(result, &copied)
	}
	idx.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result
}

// Count возвращает количество записей в индексе.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.files)
}

// TotalSize возвращает суммарный размер всех файлов в байтах.
func (idx *Index) TotalSize() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var total int64
	for _, rec := range idx.files {
		total += rec.Size
	}
	return total
}

// StorageNames возвращает отображение имя на диске → file_id
// для сверки содержимого директории с индексом.
func (idx *Index) StorageNames() map[string]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	names := make(map[string]string, len(idx.files))
	for id, rec := range idx.files {
		names[rec.StorageName()] = id
	}
	return names
}
