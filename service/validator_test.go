package service

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) (*ValidationService, *PeerStoreService, *PeerApiService) {
	t.Helper()
	setupTestDB(t)
	store := NewPeerStoreService()
	api := NewPeerApiService(t.TempDir())
	return NewValidationService(store, api), store, api
}

func TestValidateNoLocalIdentity(t *testing.T) {
	validator, _, _ := newValidator(t)
	server := testServer("https://api.example.com")

	result, err := validator.Validate(server)
	require.NoError(t, err)
	assert.IsType(t, ValidationMissing{}, result)
}

func TestValidateFoundWhenServerConfirms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/peers/abc-123/verify", r.URL.Path)
		w.Write([]byte(`{"status":"active"}`))
	}))
	defer srv.Close()

	validator, store, _ := newValidator(t)
	server := testServer(srv.URL)
	path := writeTestBundle(t)
	require.NoError(t, store.Put(server, "abc-123", path))

	result, err := validator.Validate(server)
	require.NoError(t, err)
	found, ok := result.(ValidationFound)
	require.True(t, ok)
	assert.Equal(t, "abc-123", found.PeerId)
	assert.Equal(t, path, found.ConfigPath)
}

func TestValidateMalformedCachedBundle(t *testing.T) {
	validator, store, _ := newValidator(t)
	server := testServer("https://api.example.com")
	path := writeTestBundle(t)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	require.NoError(t, store.Put(server, "abc-123", path))

	result, err := validator.Validate(server)
	require.NoError(t, err)
	assert.IsType(t, ValidationMissing{}, result)
	assert.False(t, store.HasIdentity(server), "malformed bundle clears local state")
}

func TestValidateServerRejectedClearsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	validator, store, _ := newValidator(t)
	server := testServer(srv.URL)
	path := writeTestBundle(t)
	require.NoError(t, store.Put(server, "abc-123", path))

	result, err := validator.Validate(server)
	require.NoError(t, err)
	assert.IsType(t, ValidationRejected{}, result)
	assert.False(t, store.HasIdentity(server))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "credential file removed with the identity")
}

func TestValidateVerifyErrorKeepsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	validator, store, _ := newValidator(t)
	server := testServer(srv.URL)
	path := writeTestBundle(t)
	require.NoError(t, store.Put(server, "abc-123", path))

	result, err := validator.Validate(server)
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, store.HasIdentity(server), "a failed round-trip must not discard a possibly good identity")
}
