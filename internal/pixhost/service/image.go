package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/blob"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
	"github.com/google/uuid"
)

const MaxTitleLength = 256

// cleanupTimeout bounds blob removal that must outlive the request.
const cleanupTimeout = 10 * time.Second

// ImageService keeps image metadata in the relational store and image
// bytes in the blob store. There is no transaction spanning both, so
// Upload and Delete order their writes so that a row never points at a
// missing blob.
type ImageService struct {
	Store store.Store
	Blobs blob.Store
	Now   func() time.Time
}

// Upload is one image submitted by a user.
type Upload struct {
	Title string
	Body  io.Reader
	Size  int64
}

// NewGUID returns a random uuid4 in 32 hex characters.
func NewGUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Upload writes the blob and then the row. When the row insert fails the
// blob is removed again.
func (s *ImageService) Upload(ctx context.Context, userID int64, up Upload) (domain.Image, error) {
	l := slogx.FromContext(ctx)

	title := strings.TrimSpace(up.Title)
	if title == "" {
		return domain.Image{}, validationError("title is required")
	}
	if len(title) > MaxTitleLength {
		return domain.Image{}, validationError(fmt.Sprintf("title must be at most %d bytes", MaxTitleLength))
	}
	if up.Body == nil {
		return domain.Image{}, validationError("image is required")
	}

	// The content type is recorded as sniffed, never used to reject.
	br := bufio.NewReaderSize(up.Body, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return domain.Image{}, validationError("image could not be read")
	}
	if len(head) == 0 {
		return domain.Image{}, validationError("image is empty")
	}
	contentType := http.DetectContentType(head)

	img := domain.Image{
		GUID:        NewGUID(),
		Title:       title,
		ContentType: contentType,
		Size:        up.Size,
		UserID:      userID,
		CreatedAt:   clock(s.Now).UTC().Truncate(time.Second),
	}

	if err := s.Blobs.Put(ctx, img.GUID, contentType, br, up.Size); err != nil {
		l.Error("blob put failed", slog.String("guid", img.GUID), slog.Any("error", err))
		return domain.Image{}, fmt.Errorf("%w: %v", ErrExternalStore, err)
	}

	img.ID, err = s.Store.Images().CreateImage(ctx, img)
	if err != nil {
		// The insert may have failed because ctx is done; the cleanup must
		// still run.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if derr := s.Blobs.Delete(cctx, img.GUID); derr != nil {
			l.Error("failed to remove orphaned blob",
				slog.String("guid", img.GUID),
				slog.Any("error", derr),
			)
		}
		return domain.Image{}, err
	}

	l.Info("image uploaded",
		slog.Int64("image_id", img.ID),
		slog.Int64("user_id", userID),
		slog.String("content_type", contentType),
	)
	return img, nil
}

// Get returns the image imageID if it belongs to userID.
func (s *ImageService) Get(ctx context.Context, userID, imageID int64) (domain.Image, error) {
	img, err := s.Store.Images().GetImage(ctx, imageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Image{}, fmt.Errorf("image %d: %w", imageID, ErrNotFound)
		}
		return domain.Image{}, err
	}
	if img.UserID != userID {
		return domain.Image{}, fmt.Errorf("image %d: %w", imageID, ErrNotFound)
	}
	return img, nil
}

func (s *ImageService) List(ctx context.Context, userID int64) ([]domain.Image, error) {
	return s.Store.Images().ListImagesByUser(ctx, userID)
}

// Delete removes an image on behalf of callerID, who must own it. The row
// goes first; a blob that fails to delete is only logged.
func (s *ImageService) Delete(ctx context.Context, callerID, userID, imageID int64) error {
	l := slogx.FromContext(ctx)

	img, err := s.Get(ctx, userID, imageID)
	if err != nil {
		return err
	}
	if img.UserID != callerID {
		return ErrForbidden
	}

	if err := s.Store.Images().DeleteImage(ctx, img.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("image %d: %w", imageID, ErrNotFound)
		}
		return err
	}

	if err := s.Blobs.Delete(ctx, img.GUID); err != nil {
		l.Error("blob delete failed after row removal",
			slog.String("guid", img.GUID),
			slog.Any("error", err),
		)
	}

	l.Info("image deleted", slog.Int64("image_id", img.ID), slog.Int64("user_id", callerID))
	return nil
}

// URL returns where the image bytes can be fetched from.
func (s *ImageService) URL(ctx context.Context, img domain.Image) (string, error) {
	u, err := s.Blobs.URL(ctx, img.GUID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalStore, err)
	}
	return u, nil
}

// Open streams a blob by guid.
func (s *ImageService) Open(ctx context.Context, guid string) (blob.Object, error) {
	obj, err := s.Blobs.Get(ctx, guid)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidKey) {
			return blob.Object{}, fmt.Errorf("blob %s: %w", guid, ErrNotFound)
		}
		return blob.Object{}, fmt.Errorf("%w: %v", ErrExternalStore, err)
	}
	return obj, nil
}
