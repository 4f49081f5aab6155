// Пакет openapi — встроенный OpenAPI 3 документ файлового сервера.
// Документ отдаётся по GET /openapi.yaml и служит источником
// карты endpoints для корневого ответа GET /.
package openapi

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var spec []byte

// Spec возвращает исходный текст документа (YAML).
func Spec() []byte {
	return spec
}

// Load разбирает и валидирует встроенный документ.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора OpenAPI документа: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("OpenAPI документ невалиден: %w", err)
	}
	return doc, nil
}

// Endpoints строит карту operationId → "METHOD path".
// Параметры пути в формате OpenAPI ({file_id}).
func Endpoints(doc *openapi3.T) map[string]string {
	endpoints := make(map[string]string)
	if doc.Paths == nil {
		return endpoints
	}

	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			key := op.OperationID
			if key == "" {
				key = strings.ToLower(method) + " " + path
			}
			endpoints[key] = method + " " + path
		}
	}
	return endpoints
}
