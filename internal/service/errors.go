// Пакет service — бизнес-логика файлового сервера.
// errors.go — ошибка сервисного слоя с HTTP-кодом.
package service

import (
	"fmt"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/fileserver/internal/api/errors"
)

// Error — ошибка операции с HTTP-кодом и машиночитаемым кодом API.
// Handler отдаёт её клиенту как есть через apierrors.WriteError.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	// Err — исходная причина (для логов и errors.Is), клиенту не отдаётся
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errInvalidRequest(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: apierrors.CodeInvalidRequest, Message: message}
}

func errUnsupportedType(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: apierrors.CodeUnsupportedType, Message: message}
}

func errNotFound(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Code: apierrors.CodeNotFound, Message: message}
}

func errFileTooLarge(message string) *Error {
	return &Error{StatusCode: http.StatusRequestEntityTooLarge, Code: apierrors.CodeFileTooLarge, Message: message}
}

func errStorage(message string, cause error) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Code: apierrors.CodeStorageError, Message: message, Err: cause}
}
