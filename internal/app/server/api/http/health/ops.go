package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "service-health",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Service liveness probe",
		Description: "Reports whether the vault API is up. Carries no authentication and reads no state.",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
