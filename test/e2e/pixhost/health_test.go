package pixhost_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
)

func TestHealth(t *testing.T) {
	baseURL, cleanup := setupContainer(t)
	defer cleanup()

	c := authsdk.NewSDKClient(baseURL)
	ctx := context.Background()

	live, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.BlobStore)
}
