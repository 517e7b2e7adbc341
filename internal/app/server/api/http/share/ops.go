package share

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) initiateOp() huma.Operation {
	return huma.Operation{
		OperationID: "shares-initiate",
		Method:      http.MethodPost,
		Path:        "/api/items/{id}/share",
		Summary:     "Offer an item to another user",
		Description: "Starts the handshake. The cryptographic material is attached in a separate step.",
		Tags:        []string{"shares"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.keyMW,
	}
}

func (h *Handler) provideDataOp() huma.Operation {
	return huma.Operation{
		OperationID: "shares-provide-data",
		Method:      http.MethodPost,
		Path:        "/api/shares/{id}/data",
		Summary:     "Attach the encrypted material to a share",
		Tags:        []string{"shares"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.keyMW,
	}
}

func (h *Handler) acceptOp() huma.Operation {
	return huma.Operation{
		OperationID: "shares-accept",
		Method:      http.MethodPost,
		Path:        "/api/shares/{id}/accept",
		Summary:     "Accept a share into your vault",
		Tags:        []string{"shares"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.keyMW,
	}
}

func (h *Handler) rejectOp() huma.Operation {
	return huma.Operation{
		OperationID: "shares-reject",
		Method:      http.MethodPost,
		Path:        "/api/shares/{id}/reject",
		Summary:     "Decline a pending share",
		Tags:        []string{"shares"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.sessionMW,
	}
}

func (h *Handler) revokeOp() huma.Operation {
	return huma.Operation{
		OperationID: "shares-revoke",
		Method:      http.MethodPost,
		Path:        "/api/shares/{id}/revoke",
		Summary:     "Withdraw a share you sent",
		Tags:        []string{"shares"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.sessionMW,
	}
}

func (h *Handler) listSentOp() huma.Operation {
	return huma.Operation{
		OperationID: "shares-list-sent",
		Method:      http.MethodGet,
		Path:        "/api/shares/sent",
		Summary:     "List shares you sent",
		Tags:        []string{"shares"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.sessionMW,
	}
}

func (h *Handler) listReceivedOp() huma.Operation {
	return huma.Operation{
		OperationID: "shares-list-received",
		Method:      http.MethodGet,
		Path:        "/api/shares/received",
		Summary:     "List shares addressed to you",
		Tags:        []string{"shares"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.sessionMW,
	}
}
