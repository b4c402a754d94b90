package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
)

// UsersHandler lists users and their images for bearer token holders.
type UsersHandler struct {
	UserService  *service.UserService
	ImageService *service.ImageService
}

// HandleList handles GET /api/users.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := authsdk.ListUsersResponse{
		Users: make([]authsdk.UserInfo, 0, len(users)),
		Links: authsdk.Links{Self: &authsdk.Link{Href: usersPath}},
	}
	for _, u := range users {
		resp.Users = append(resp.Users, renderUser(u))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/user/{user_id}.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}

	u, err := h.UserService.Get(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	images, err := h.ImageService.List(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := renderUser(u)
	resp.Images = make([]authsdk.ImageInfo, 0, len(images))
	for _, img := range images {
		resp.Images = append(resp.Images, renderImage(img))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// pathID parses a positive integer path value, answering 404 otherwise
// since no such resource can exist.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		authsdk.NewOAuth2Error(http.StatusNotFound, "not_found",
			fmt.Sprintf("no resource with %s %q", name, r.PathValue(name))).WriteError(w)
		return 0, false
	}
	return id, true
}
