// files.go — сервис загрузки, отдачи, листинга и удаления документов.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/fileserver/internal/api/middleware"
	"github.com/bigkaa/goartstore/fileserver/internal/domain/model"
	"github.com/bigkaa/goartstore/fileserver/internal/storage/filestore"
	"github.com/bigkaa/goartstore/fileserver/internal/storage/index"
)

// FilesConfig — параметры FileService.
type FilesConfig struct {
	// MaxFileSize — максимальный размер загружаемого файла в байтах
	MaxFileSize int64
	// InternalBaseURL — база для поля url (Document Server → fileserver)
	InternalBaseURL string
	// ExternalBaseURL — база для поля external_url (браузер → fileserver)
	ExternalBaseURL string
}

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// Filename — имя файла из multipart part
	Filename string
	// ContentType — Content-Type из заголовка part, пустая строка если не указан
	ContentType string
}

// FileService — операции над документами: индекс + файлы на диске.
type FileService struct {
	cfg    FilesConfig
	store  *filestore.FileStore
	idx    *index.Index
	logger *slog.Logger
}

// NewFileService создаёт сервис документов.
func NewFileService(
	cfg FilesConfig,
	store *filestore.FileStore,
	idx *index.Index,
	logger *slog.Logger,
) *FileService {
	cfg.InternalBaseURL = strings.TrimRight(cfg.InternalBaseURL, "/")
	cfg.ExternalBaseURL = strings.TrimRight(cfg.ExternalBaseURL, "/")
	return &FileService{
		cfg:    cfg,
		store:  store,
		idx:    idx,
		logger: logger.With(slog.String("component", "file_service")),
	}
}

// Upload сохраняет файл на диск и регистрирует его в индексе.
//
// Поток:
//  1. Проверка имени файла и расширения по allow-list
//  2. Генерация file_id (UUID v4)
//  3. Запись <id><ext> (streaming + SHA-256, temp → rename)
//  4. Проверка лимита размера
//  5. index.Add
//
// Запись в индекс происходит только после успешной записи на диск.
// При ошибке частично записанный файл удаляется.
func (s *FileService) Upload(params UploadParams) (*model.FileRecord, *Error) {
	// 1. Имя файла обязательно, расширение — из allow-list
	if params.Filename == "" {
		s.countOperation("upload", "invalid")
		return nil, errInvalidRequest("Файл не выбран")
	}

	ext := model.ExtensionOf(params.Filename)
	if !model.IsSupportedExtension(ext) {
		s.countOperation("upload", "unsupported")
		return nil, errUnsupportedType(fmt.Sprintf(
			"Неподдерживаемый формат файла. Поддерживаемые форматы: %s",
			strings.Join(model.SupportedExtensions(), ", "),
		))
	}

	// 2. Генерируем file_id
	fileID := uuid.New().String()
	storageName := model.StorageName(fileID, ext)

	// 3. Пишем на диск. Читаем на байт больше лимита, чтобы отличить
	// файл ровно в лимит от превышающего.
	limited := io.LimitReader(params.Reader, s.cfg.MaxFileSize+1)
	saved, err := s.store.Save(storageName, limited)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.countOperation("upload", "too_large")
			return nil, s.tooLarge()
		}
		s.countOperation("upload", "error")
		s.logger.Error("Ошибка сохранения файла",
			slog.String("file_id", fileID),
			slog.String("filename", params.Filename),
			slog.String("error", err.Error()),
		)
		return nil, errStorage(fmt.Sprintf("Ошибка сохранения файла: %v", err), err)
	}

	// 4. Лимит размера
	if saved.Size > s.cfg.MaxFileSize {
		if delErr := s.store.Delete(storageName); delErr != nil {
			s.logger.Error("Не удалось удалить файл, превысивший лимит",
				slog.String("file_id", fileID),
				slog.String("error", delErr.Error()),
			)
		}
		s.countOperation("upload", "too_large")
		return nil, s.tooLarge()
	}

	// 5. Регистрируем в индексе
	rec := &model.FileRecord{
		ID:               fileID,
		OriginalFilename: params.Filename,
		Extension:        ext,
		ContentType:      normalizeContentType(params.ContentType),
		Size:             saved.Size,
		Checksum:         saved.Checksum,
		UploadedAt:       time.Now().UTC(),
		StoragePath:      saved.FullPath,
	}
	s.idx.Add(rec)

	s.countOperation("upload", "success")
	s.updateGauges()

	s.logger.Info("Файл загружен",
		slog.String("file_id", fileID),
		slog.String("filename", params.Filename),
		slog.Int64("size", saved.Size),
		slog.String("checksum", saved.Checksum),
	)

	return rec, nil
}

// Serve отдаёт содержимое файла через http.ServeContent.
// Поддерживает Range requests и ETag (If-None-Match).
// Заголовки Access-Control-* выставляются явно: документ забирает
// Document Server и браузер с другого origin.
func (s *FileService) Serve(w http.ResponseWriter, r *http.Request, fileID string) *Error {
	rec := s.idx.Get(fileID)
	if rec == nil {
		s.countOperation("download", "not_found")
		return errNotFound(fmt.Sprintf("Файл %s не найден", fileID))
	}

	file, err := s.store.Open(rec.StorageName())
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			// Запись в индексе есть, файла на диске нет
			s.countOperation("download", "dangling")
			s.logger.Warn("Файл из индекса отсутствует на диске",
				slog.String("file_id", fileID),
				slog.String("storage_path", rec.StoragePath),
			)
			return errNotFound(fmt.Sprintf("Файл %s отсутствует на диске", fileID))
		}
		s.countOperation("download", "error")
		s.logger.Error("Ошибка открытия файла",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		return errStorage(fmt.Sprintf("Ошибка чтения файла: %v", err), err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		s.countOperation("download", "error")
		return errStorage(fmt.Sprintf("Ошибка чтения файла: %v", err), err)
	}

	h := w.Header()
	h.Set("Content-Type", rec.ResolvedContentType())
	h.Set("Content-Disposition", contentDisposition(rec.OriginalFilename))
	h.Set("ETag", fmt.Sprintf("%q", rec.Checksum))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")

	http.ServeContent(w, r, rec.OriginalFilename, stat.ModTime(), file)

	s.countOperation("download", "success")
	s.logger.Debug("Файл отдан",
		slog.String("file_id", fileID),
		slog.String("filename", rec.OriginalFilename),
		slog.Int64("size", rec.Size),
	)

	return nil
}

// Info возвращает метаданные файла.
func (s *FileService) Info(fileID string) (*model.FileRecord, *Error) {
	rec := s.idx.Get(fileID)
	if rec == nil {
		return nil, errNotFound(fmt.Sprintf("Файл %s не найден", fileID))
	}
	return rec, nil
}

// List возвращает все записи индекса: новые первыми.
func (s *FileService) List() []*model.FileRecord {
	return s.idx.List()
}

// Delete удаляет файл с диска, затем запись из индекса.
// Отсутствие файла на диске не ошибка. При ошибке удаления
// запись в индексе сохраняется.
func (s *FileService) Delete(fileID string) *Error {
	rec := s.idx.Get(fileID)
	if rec == nil {
		s.countOperation("delete", "not_found")
		return errNotFound(fmt.Sprintf("Файл %s не найден", fileID))
	}

	if err := s.store.Delete(rec.StorageName()); err != nil {
		s.countOperation("delete", "error")
		s.logger.Error("Ошибка удаления файла",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		return errStorage(fmt.Sprintf("Ошибка удаления файла: %v", err), err)
	}

	// Параллельный DELETE мог удалить запись раньше нас
	if !s.idx.Remove(fileID) {
		s.countOperation("delete", "not_found")
		return errNotFound(fmt.Sprintf("Файл %s не найден", fileID))
	}

	s.countOperation("delete", "success")
	s.updateGauges()

	s.logger.Info("Файл удалён",
		slog.String("file_id", fileID),
		slog.String("filename", rec.OriginalFilename),
	)

	return nil
}

// InternalURL — ссылка на файл для Document Server.
func (s *FileService) InternalURL(fileID string) string {
	return s.cfg.InternalBaseURL + "/files/" + fileID
}

// ExternalURL — ссылка на файл для браузера.
func (s *FileService) ExternalURL(fileID string) string {
	return s.cfg.ExternalBaseURL + "/files/" + fileID
}

// MaxFileSize возвращает лимит размера загрузки.
func (s *FileService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

func (s *FileService) tooLarge() *Error {
	return errFileTooLarge(fmt.Sprintf("Размер файла превышает максимум %d байт", s.cfg.MaxFileSize))
}

func (s *FileService) countOperation(operation, result string) {
	middleware.OperationsTotal.WithLabelValues(operation, result).Inc()
}

func (s *FileService) updateGauges() {
	middleware.FilesTotal.Set(float64(s.idx.Count()))
	middleware.StorageBytes.Set(float64(s.idx.TotalSize()))
}

// normalizeContentType убирает параметры (charset и т.д.) из заявленного типа.
// Пустая строка остаётся пустой: тип не указан.
func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.TrimSpace(contentType)
	}
	return mediaType
}

// contentDisposition формирует attachment с именем файла.
// Не-ASCII имена кодируются по RFC 2231 (filename*=utf-8'').
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
