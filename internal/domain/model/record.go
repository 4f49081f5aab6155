// Пакет model — доменные модели файлового сервера.
// FileRecord — метаданные загруженного документа, хранятся только
// в in-memory индексе и теряются при рестарте процесса.
package model

import (
	"time"
)

// FileRecord — метаданные одного загруженного файла.
type FileRecord struct {
	// ID — уникальный идентификатор файла (UUID v4), внешний handle
	ID string `json:"file_id"`

	// OriginalFilename — имя файла от клиента, без изменений
	OriginalFilename string `json:"original_filename"`

	// Extension — расширение в нижнем регистре (".docx"), проверено по allow-list
	Extension string `json:"file_extension"`

	// ContentType — MIME-тип, заявленный клиентом. Пустая строка — не указан.
	ContentType string `json:"content_type,omitempty"`

	// Size — размер записанных данных в байтах
	Size int64 `json:"size"`

	// Checksum — SHA-256 содержимого, считается при записи
	Checksum string `json:"checksum"`

	// UploadedAt — время успешной записи (UTC)
	UploadedAt time.Time `json:"upload_time"`

	// StoragePath — абсолютный путь файла: <uploadDir>/<id><ext>
	StoragePath string `json:"-"`
}

// StorageName возвращает имя файла на диске относительно директории загрузок.
func (r *FileRecord) StorageName() string {
	return StorageName(r.ID, r.Extension)
}

// StorageName формирует имя файла на диске: <id><ext>.
func StorageName(id, ext string) string {
	return id + ext
}

// ResolvedContentType возвращает Content-Type для отдачи файла:
// заявленный клиентом, иначе по расширению имени, иначе application/octet-stream.
func (r *FileRecord) ResolvedContentType() string {
	if r.ContentType != "" {
		return r.ContentType
	}
	return ContentTypeForFilename(r.OriginalFilename)
}
