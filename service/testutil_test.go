package service

import (
	"path/filepath"
	"testing"

	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/database"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
}

func testServer(apiURL string) *config.Server {
	return &config.Server{
		Id:            "srv-1",
		Name:          "Test Server",
		Country:       "NL",
		ApiUrl:        apiURL,
		ApiToken:      "secret-token",
		RetryAttempts: 1,
		RetryDelayMs:  1,
		TimeoutMs:     2000,
		Enabled:       true,
	}
}

const validBundle = "[Interface]\nPrivateKey = x\nAddress = 10.8.0.2/32\n\n[Peer]\nPublicKey = y\nAllowedIPs = 0.0.0.0/0\nEndpoint = vpn.example.com:51820\n"
