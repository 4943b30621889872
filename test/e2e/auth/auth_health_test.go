package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/fintrack/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestHealthEndpoints verifies both probes answer on a fresh container.
func TestHealthEndpoints(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	health, err = client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}
