// handler.go — APIHandler собирает доменные handler'ы в один объект,
// который сервер монтирует на маршруты.
package handlers

// APIHandler — набор всех доменных handlers сервиса.
type APIHandler struct {
	Files       *FilesHandler
	System      *SystemHandler
	Maintenance *MaintenanceHandler
	Health      *HealthHandler
}

// NewAPIHandler создаёт единый handler для всех endpoints.
func NewAPIHandler(
	files *FilesHandler,
	system *SystemHandler,
	maintenance *MaintenanceHandler,
	health *HealthHandler,
) *APIHandler {
	return &APIHandler{
		Files:       files,
		System:      system,
		Maintenance: maintenance,
		Health:      health,
	}
}
