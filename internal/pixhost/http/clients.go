package http

import (
	"net/http"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
)

// ClientsHandler handles client registration for logged-in developers.
type ClientsHandler struct {
	ClientService *service.ClientService
}

// HandleCreate handles POST /auth/create_client. JSON bodies carry lists
// as arrays; form bodies carry them one per line.
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, ok := SessionUserFromContext(ctx)
	if !ok {
		authsdk.ErrLoginRequired.WriteError(w)
		return
	}

	f, oe := readFields(w, r)
	if oe != nil {
		oe.WriteError(w)
		return
	}

	meta := domain.ClientMetadata{
		Name:                    f.get("client_name"),
		URI:                     f.get("client_uri"),
		GrantTypes:              f.listOr("grant_types", "grant_type"),
		RedirectURIs:            f.listOr("redirect_uris", "redirect_uri"),
		ResponseTypes:           f.listOr("response_types", "response_type"),
		Scopes:                  httpx.ParseSpaceDelimitedFields(f.get("scope")),
		TokenEndpointAuthMethod: f.get("token_endpoint_auth_method"),
	}

	c, secret, err := h.ClientService.Register(ctx, u.ID, meta)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The secret is only ever shown here.
	httpx.WriteJSON(w, http.StatusOK, renderClient(c, secret))
}

// HandleList handles GET /auth/clients.
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, ok := SessionUserFromContext(ctx)
	if !ok {
		authsdk.ErrLoginRequired.WriteError(w)
		return
	}

	clients, err := h.ClientService.ListForUser(ctx, u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := authsdk.ListClientsResponse{Clients: make([]authsdk.ClientInfo, 0, len(clients))}
	for _, c := range clients {
		resp.Clients = append(resp.Clients, renderClient(c, ""))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
