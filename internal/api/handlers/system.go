// system.go — обработчики GET / (баннер сервиса) и GET /openapi.yaml.
package handlers

import (
	"net/http"

	"github.com/bigkaa/goartstore/fileserver/internal/config"
)

// rootMessage — название сервиса в корневом ответе.
const rootMessage = "OnlyOffice File Server"

// rootResponse — ответ GET /.
type rootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// SystemHandler — обработчик системных endpoints.
type SystemHandler struct {
	// endpoints — operationId → "METHOD path" из OpenAPI документа
	endpoints map[string]string
	// spec — исходный OpenAPI документ (YAML)
	spec []byte
}

// NewSystemHandler создаёт обработчик системных endpoints.
func NewSystemHandler(endpoints map[string]string, spec []byte) *SystemHandler {
	return &SystemHandler{
		endpoints: endpoints,
		spec:      spec,
	}
}

// Root обрабатывает GET /.
func (h *SystemHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message:   rootMessage,
		Version:   config.Version,
		Endpoints: h.endpoints,
	})
}

// OpenAPISpec обрабатывает GET /openapi.yaml.
func (h *SystemHandler) OpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}
