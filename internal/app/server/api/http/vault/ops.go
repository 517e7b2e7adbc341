package vault

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) unlockOp() huma.Operation {
	return huma.Operation{
		OperationID: "vault-unlock",
		Method:      http.MethodPost,
		Path:        "/api/vault/unlock",
		Summary:     "Unlock the vault",
		Description: "Derives the master key from the master password and caches it server-side for a limited window.",
		Tags:        []string{"vault"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.sessionMW,
	}
}

func (h *Handler) lockOp() huma.Operation {
	return huma.Operation{
		OperationID: "vault-lock",
		Method:      http.MethodPost,
		Path:        "/api/vault/lock",
		Summary:     "Lock the vault",
		Description: "Drops the cached master key immediately.",
		Tags:        []string{"vault"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.sessionMW,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "items-list",
		Method:      http.MethodGet,
		Path:        "/api/items",
		Summary:     "List decrypted vault items",
		Tags:        []string{"items"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.itemMW,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID: "items-create",
		Method:      http.MethodPost,
		Path:        "/api/items",
		Summary:     "Store a new credential",
		Tags:        []string{"items"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.itemMW,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "items-update",
		Method:      http.MethodPut,
		Path:        "/api/items/{id}",
		Summary:     "Update a credential",
		Tags:        []string{"items"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.itemMW,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "items-delete",
		Method:      http.MethodDelete,
		Path:        "/api/items/{id}",
		Summary:     "Delete a credential",
		Tags:        []string{"items"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.itemMW,
	}
}
