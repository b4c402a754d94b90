package domain

import "time"

// Image is the metadata row for an uploaded blob. GUID is the blob key and
// never changes.
type Image struct {
	ID          int64
	GUID        string
	Title       string
	ContentType string
	Size        int64
	UserID      int64
	CreatedAt   time.Time
}
