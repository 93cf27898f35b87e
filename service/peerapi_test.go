package service

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndFetchExtractsPeerIdFromHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/peers/config", r.URL.Path)
		require.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Disposition", `attachment; filename="abc-123.conf"`)
		w.Write([]byte(validBundle))
	}))
	defer srv.Close()

	api := NewPeerApiService(t.TempDir())
	cred, err := api.MintAndFetch(testServer(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", cred.PeerId)
	assert.Equal(t, validBundle, cred.Content)
}

func TestMintAndFetchFallsBackToLocalId(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validBundle))
	}))
	defer srv.Close()

	api := NewPeerApiService(t.TempDir())
	cred, err := api.MintAndFetch(testServer(srv.URL))
	require.NoError(t, err)
	assert.NotEmpty(t, cred.PeerId)
}

func TestMintAndFetchRejectsMalformedBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a tunnel config"))
	}))
	defer srv.Close()

	api := NewPeerApiService(t.TempDir())
	_, err := api.MintAndFetch(testServer(srv.URL))
	assert.ErrorIs(t, err, ErrMalformedCredential)
}

func TestMintAndFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := NewPeerApiService(t.TempDir())
	_, err := api.MintAndFetch(testServer(srv.URL))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedCredential)
}

func TestVerifyOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		active  bool
		wantErr bool
	}{
		{
			name: "active",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"active"}`))
			},
			active: true,
		},
		{
			name: "expired",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"expired"}`))
			},
			active: false,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			active: false,
		},
		{
			name: "server error is not a rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
		{
			name: "garbage body is not a rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{{{"))
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			api := NewPeerApiService(t.TempDir())
			active, err := api.Verify(testServer(srv.URL), "abc-123")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.active, active)
		})
	}
}

func TestVerifyNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	api := NewPeerApiService(t.TempDir())
	active, err := api.Verify(testServer(url), "abc-123")
	assert.Error(t, err)
	assert.False(t, active)
}

func TestRevokeIdempotent(t *testing.T) {
	deleted := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/peers/abc-123", r.URL.Path)
		if deleted {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	api := NewPeerApiService(t.TempDir())
	server := testServer(srv.URL)
	assert.True(t, api.Revoke(server, "abc-123"))
	assert.True(t, api.Revoke(server, "abc-123"), "already-revoked identity still reports success")
}

func TestRevokeFailureIsReportedNotRaised(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := NewPeerApiService(t.TempDir())
	assert.False(t, api.Revoke(testServer(srv.URL), "abc-123"))
}

func TestWriteCredentialResolvesCollisions(t *testing.T) {
	dir := t.TempDir()
	api := NewPeerApiService(dir)

	first, err := api.WriteCredential("peer", validBundle)
	require.NoError(t, err)
	second, err := api.WriteCredential("peer", validBundle)
	require.NoError(t, err)
	third, err := api.WriteCredential("peer", validBundle)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "peer.conf"), first)
	assert.Equal(t, filepath.Join(dir, "peer-1.conf"), second)
	assert.Equal(t, filepath.Join(dir, "peer-2.conf"), third)

	data, err := os.ReadFile(third)
	require.NoError(t, err)
	assert.Equal(t, validBundle, string(data))
}

func TestBundleRoundTripClassification(t *testing.T) {
	assert.True(t, isWellFormedBundle(validBundle))
	assert.False(t, isWellFormedBundle("[Interface]\nPrivateKey = x\n"))
	assert.False(t, isWellFormedBundle("[Peer]\nPublicKey = y\n"))
	assert.False(t, isWellFormedBundle(""))
}

func TestPeerIdFromHeader(t *testing.T) {
	assert.Equal(t, "abc-123", peerIdFromHeader(`attachment; filename="abc-123.conf"`))
	assert.Equal(t, "abc-123", peerIdFromHeader(`attachment; filename=abc-123.conf`))
	assert.Equal(t, "", peerIdFromHeader(""))
	assert.Equal(t, "", peerIdFromHeader("attachment"))
}
