package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/blob"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
)

const readinessTimeout = 3 * time.Second

// ReadyzHandler checks the database and the blob store and answers 503
// when either is unreachable.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	blobs blob.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database:  "ok",
			BlobStore: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := blobs.Ping(ctx); err != nil {
			checks.BlobStore = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
