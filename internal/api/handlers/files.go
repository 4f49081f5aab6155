// files.go — HTTP handlers файловых операций.
// Upload, Download, List, Info, Delete.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/fileserver/internal/api/errors"
	"github.com/bigkaa/goartstore/fileserver/internal/domain/model"
	"github.com/bigkaa/goartstore/fileserver/internal/service"
)

// multipartOverhead — запас сверх лимита файла на заголовки multipart
// и прочие поля формы.
const multipartOverhead = 1 << 20

// uploadField — имя поля формы с файлом.
const uploadField = "file"

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	svc *service.FileService
}

// NewFilesHandler создаёт обработчик файловых endpoints.
func NewFilesHandler(svc *service.FileService) *FilesHandler {
	return &FilesHandler{svc: svc}
}

// uploadResponse — ответ POST /upload.
type uploadResponse struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	ExternalURL string `json:"external_url"`
	Message     string `json:"message"`
}

// fileSummary — элемент списка GET /files.
type fileSummary struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	UploadTime  string `json:"upload_time"`
	URL         string `json:"url"`
	ExternalURL string `json:"external_url"`
}

// fileListResponse — ответ GET /files.
type fileListResponse struct {
	Files []fileSummary `json:"files"`
	Total int           `json:"total"`
}

// fileInfoResponse — ответ GET /files/{id}/info.
// content_type сериализуется как null, если клиент его не указал.
type fileInfoResponse struct {
	fileSummary
	ContentType   *string `json:"content_type"`
	FileExtension string  `json:"file_extension"`
	Checksum      string  `json:"checksum"`
}

// deleteResponse — ответ DELETE /files/{id}.
type deleteResponse struct {
	Message string `json:"message"`
	FileID  string `json:"file_id"`
}

// UploadFile обрабатывает POST /upload.
// Тело читается потоково через multipart.Reader: файл пишется на диск
// без буферизации формы в памяти или во временных файлах.
func (h *FilesHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.MaxFileSize()+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		apierrors.InvalidRequest(w, "Ожидается multipart/form-data с полем 'file'")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				apierrors.FileTooLarge(w, "Размер запроса превышает лимит")
				return
			}
			apierrors.InvalidRequest(w, "Ошибка разбора multipart: "+err.Error())
			return
		}

		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		rec, svcErr := h.svc.Upload(service.UploadParams{
			Reader:      part,
			Filename:    rawFileName(part),
			ContentType: part.Header.Get("Content-Type"),
		})
		_ = part.Close()
		if svcErr != nil {
			writeServiceError(w, svcErr)
			return
		}

		writeJSON(w, http.StatusOK, uploadResponse{
			FileID:      rec.ID,
			Filename:    rec.OriginalFilename,
			Size:        rec.Size,
			URL:         h.svc.InternalURL(rec.ID),
			ExternalURL: h.svc.ExternalURL(rec.ID),
			Message:     "Файл успешно загружен",
		})
		return
	}

	apierrors.InvalidRequest(w, "Файл не выбран")
}

// DownloadFile обрабатывает GET /files/{id}.
// Поддерживает Range requests (206) и ETag (If-None-Match → 304).
func (h *FilesHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if svcErr := h.svc.Serve(w, r, chi.URLParam(r, "id")); svcErr != nil {
		writeServiceError(w, svcErr)
	}
}

// ListFiles обрабатывает GET /files.
func (h *FilesHandler) ListFiles(w http.ResponseWriter, _ *http.Request) {
	records := h.svc.List()

	files := make([]fileSummary, 0, len(records))
	for _, rec := range records {
		files = append(files, h.summary(rec))
	}

	writeJSON(w, http.StatusOK, fileListResponse{
		Files: files,
		Total: len(files),
	})
}

// GetFileInfo обрабатывает GET /files/{id}/info.
func (h *FilesHandler) GetFileInfo(w http.ResponseWriter, r *http.Request) {
	rec, svcErr := h.svc.Info(chi.URLParam(r, "id"))
	if svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	resp := fileInfoResponse{
		fileSummary:   h.summary(rec),
		FileExtension: rec.Extension,
		Checksum:      rec.Checksum,
	}
	if rec.ContentType != "" {
		ct := rec.ContentType
		resp.ContentType = &ct
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteFile обрабатывает DELETE /files/{id}.
func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")

	if svcErr := h.svc.Delete(fileID); svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Message: "Файл успешно удалён",
		FileID:  fileID,
	})
}

// rawFileName возвращает имя файла из Content-Disposition части без
// изменений. multipart.Part.FileName обрезает путь, а имя нужно
// сохранить в том виде, в каком его прислал клиент.
func rawFileName(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return params["filename"]
}

// summary конвертирует запись индекса в элемент списка.
func (h *FilesHandler) summary(rec *model.FileRecord) fileSummary {
	return fileSummary{
		FileID:      rec.ID,
		Filename:    rec.OriginalFilename,
		Size:        rec.Size,
		UploadTime:  formatTime(rec.UploadedAt),
		URL:         h.svc.InternalURL(rec.ID),
		ExternalURL: h.svc.ExternalURL(rec.ID),
	}
}

// writeServiceError отдаёт ошибку сервисного слоя в едином формате.
func writeServiceError(w http.ResponseWriter, err *service.Error) {
	apierrors.WriteError(w, err.StatusCode, err.Code, err.Message)
}

// writeJSON записывает JSON-ответ с указанным статус-кодом.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// formatTime форматирует время в RFC 3339 (UTC).
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
