package authsdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Image API operations. Every call needs the client's ResourceScope and
// automatically refreshes the access token if expired.

// ListUsers lists every user.
func (s *Session) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/users", nil, nil, s.client.ResourceScope)
	if err != nil {
		return nil, err
	}

	var users ListUsersResponse
	if err := decodeJSON(resp, &users, http.StatusOK); err != nil {
		return nil, err
	}

	return &users, nil
}

// GetUser returns a user with their images.
func (s *Session) GetUser(ctx context.Context, userID int64) (*UserInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, fmt.Sprintf("/api/user/%d", userID), nil, nil,
		s.client.ResourceScope)
	if err != nil {
		return nil, err
	}

	var user UserInfo
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// UploadImage uploads an image owned by the token's user. filename is only
// sent as part of the multipart header.
func (s *Session) UploadImage(ctx context.Context, title, filename string, image io.Reader) (*UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("title", title); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/upload", &body,
		map[string]string{"Content-Type": mw.FormDataContentType()},
		s.client.ResourceScope,
	)
	if err != nil {
		return nil, err
	}

	var upload UploadResponse
	if err := decodeJSON(resp, &upload, http.StatusOK); err != nil {
		return nil, err
	}

	return &upload, nil
}

// GetImage returns an image's metadata including its download URL.
func (s *Session) GetImage(ctx context.Context, userID, imageID int64) (*ImageInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, imagePath(userID, imageID), nil, nil,
		s.client.ResourceScope)
	if err != nil {
		return nil, err
	}

	var image ImageInfo
	if err := decodeJSON(resp, &image, http.StatusOK); err != nil {
		return nil, err
	}

	return &image, nil
}

// ImageLocation returns where the image's bytes are served, without
// following the redirect.
func (s *Session) ImageLocation(ctx context.Context, userID, imageID int64) (string, error) {
	resp, err := s.doAuthRequestWith(ctx, s.client.noRedirectClient(), http.MethodGet,
		imagePath(userID, imageID)+"/get", nil, nil, s.client.ResourceScope)
	if err != nil {
		return "", err
	}

	return redirectLocation(resp)
}

// DeleteImage deletes an image. Only its owner may do so.
func (s *Session) DeleteImage(ctx context.Context, userID, imageID int64) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, imagePath(userID, imageID), nil, nil,
		s.client.ResourceScope)
	if err != nil {
		return err
	}

	var result SuccessResponse
	return decodeJSON(resp, &result, http.StatusOK)
}

func imagePath(userID, imageID int64) string {
	return fmt.Sprintf("/api/user/%d/image/%d", userID, imageID)
}
