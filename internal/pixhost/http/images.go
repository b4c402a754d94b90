package http

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// DefaultMaxUploadBytes bounds an upload request body.
const DefaultMaxUploadBytes = 10 << 20

// uploadMemory is how much of a multipart upload is held in memory before
// spilling to a temporary file.
const uploadMemory = 4 << 20

// ImagesHandler serves the image API.
type ImagesHandler struct {
	ImageService   *service.ImageService
	MaxUploadBytes int64
}

// HandleUpload handles POST /api/upload with multipart fields "title" and
// "image".
func (h *ImagesHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := httpx.PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteBearerError(w, "missing bearer token")
		return
	}

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			authsdk.NewOAuth2Error(http.StatusRequestEntityTooLarge, authsdk.ErrorCodeInvalidRequest,
				"upload exceeds "+strconv.FormatInt(limit, 10)+" bytes").WriteError(w)
			return
		}
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"body must be multipart/form-data").WriteError(w)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"image file is required").WriteError(w)
		return
	}
	defer file.Close()

	img, err := h.ImageService.Upload(ctx, p.UserID, service.Upload{
		Title: r.FormValue("title"),
		Body:  file,
		Size:  header.Size,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UploadResponse{Success: true, Image: renderImage(img)})
}

// HandleGet handles GET /api/user/{user_id}/image/{image_id}.
func (h *ImagesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "image_id")
	if !ok {
		return
	}

	img, err := h.ImageService.Get(ctx, userID, imageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	location, err := h.ImageService.URL(ctx, img)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := renderImage(img)
	resp.URL = location
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRedirect handles GET /api/user/{user_id}/image/{image_id}/get by
// redirecting to the stored bytes.
func (h *ImagesHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "image_id")
	if !ok {
		return
	}

	img, err := h.ImageService.Get(ctx, userID, imageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	location, err := h.ImageService.URL(ctx, img)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, location, http.StatusFound)
}

// HandleDelete handles DELETE /api/user/{user_id}/image/{image_id}. Only
// the owner may delete.
func (h *ImagesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := httpx.PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteBearerError(w, "missing bearer token")
		return
	}
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "image_id")
	if !ok {
		return
	}

	if err := h.ImageService.Delete(ctx, p.UserID, userID, imageID); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}

// blobCSP keeps script in an uploaded file (an svg, say) from running.
const blobCSP = "sandbox; default-src 'none'"

// BlobsHandler serves GET /blobs/{guid} for stores that have no URL of
// their own.
func BlobsHandler(images *service.ImageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		obj, err := images.Open(ctx, r.PathValue("guid"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer obj.Body.Close()

		var body io.Reader = obj.Body
		contentType := obj.ContentType
		if contentType == "" {
			// The file driver keeps no metadata.
			br := bufio.NewReaderSize(obj.Body, 512)
			head, _ := br.Peek(512)
			contentType = http.DetectContentType(head)
			body = br
		}

		// Blobs share the authorization server's origin, so nothing served
		// here may render as a document.
		if strings.HasPrefix(contentType, "image/") {
			w.Header().Set("Content-Disposition", "inline")
		} else {
			contentType = "application/octet-stream"
			w.Header().Set("Content-Disposition", "attachment")
		}
		w.Header().Set("Content-Security-Policy", blobCSP)
		w.Header().Set("Content-Type", contentType)
		if obj.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, body); err != nil {
			slogx.FromContext(ctx).Warn("blob stream interrupted", slog.Any("error", err))
		}
	}
}
