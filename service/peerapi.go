package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/logger"

	"github.com/gofrs/uuid/v5"
)

// ErrMalformedCredential marks a bundle missing its structural markers.
// Callers treat it like a failed fetch and never activate such a bundle.
var ErrMalformedCredential = errors.New("credential bundle is malformed")

const (
	interfaceMarker = "[Interface]"
	peerMarker      = "[Peer]"
)

// Credential is a freshly minted peer identity plus its tunnel
// configuration document.
type Credential struct {
	PeerId  string
	Content string
}

// PeerApiService talks to a server's remote peer service: minting,
// verifying and revoking identities. Every call is bounded by the server's
// configured timeout.
type PeerApiService struct {
	configDir string
}

func NewPeerApiService(configDir string) *PeerApiService {
	return &PeerApiService{configDir: configDir}
}

func (s *PeerApiService) httpClient(server *config.Server) *http.Client {
	return &http.Client{Timeout: server.Timeout()}
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// MintAndFetch creates a new identity on the remote service and downloads
// its credential bundle in a single exchange. When the response carries no
// usable identity a local UUID stands in so the flow never stalls.
func (s *PeerApiService) MintAndFetch(server *config.Server) (*Credential, error) {
	url := fmt.Sprintf("%s/peers/config", strings.TrimSuffix(server.ApiUrl, "/"))
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	setAuth(req, server.ApiToken)
	resp, err := s.httpClient(server).Do(req)
	if err != nil {
		return nil, fmt.Errorf("mint peer config: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mint peer config: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read peer config: %w", err)
	}
	content := string(body)
	if !isWellFormedBundle(content) {
		return nil, ErrMalformedCredential
	}
	peerId := peerIdFromHeader(resp.Header.Get("Content-Disposition"))
	if peerId == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		peerId = id.String()
		logger.Warningf("peer api: %s returned no peer id, using local placeholder %s", server.Name, peerId)
	}
	return &Credential{PeerId: peerId, Content: content}, nil
}

// Verify asks the remote service whether the identity is still active.
// A 404 is a definite "no"; transport or decode problems come back as an
// error so the caller can retry instead of discarding a good identity.
func (s *PeerApiService) Verify(server *config.Server, peerId string) (bool, error) {
	url := fmt.Sprintf("%s/peers/%s/verify", strings.TrimSuffix(server.ApiUrl, "/"), peerId)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	setAuth(req, server.ApiToken)
	resp, err := s.httpClient(server).Do(req)
	if err != nil {
		return false, fmt.Errorf("verify peer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("verify peer: %s", resp.Status)
	}
	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode verify response: %w", err)
	}
	return result.Status == "active", nil
}

// Revoke deletes the identity remotely, best effort. A 404 means someone
// beat us to it and counts as success; other failures are logged and
// reported false but never abort the surrounding cleanup.
func (s *PeerApiService) Revoke(server *config.Server, peerId string) bool {
	url := fmt.Sprintf("%s/peers/%s", strings.TrimSuffix(server.ApiUrl, "/"), peerId)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		logger.Warning("revoke peer:", err)
		return false
	}
	setAuth(req, server.ApiToken)
	resp, err := s.httpClient(server).Do(req)
	if err != nil {
		logger.Warning("revoke peer:", err)
		return false
	}
	defer resp.Body.Close()
	if (resp.StatusCode >= 200 && resp.StatusCode < 300) || resp.StatusCode == http.StatusNotFound {
		return true
	}
	logger.Warningf("revoke peer %s: %s", peerId, resp.Status)
	return false
}

// WriteCredential stores the bundle under the config dir, picking the next
// free filename when the preferred one is taken. Returns the final path.
func (s *PeerApiService) WriteCredential(baseName string, content string) (string, error) {
	if err := os.MkdirAll(s.configDir, 0o700); err != nil {
		return "", err
	}
	name := nextAvailableName(s.configDir, baseName+".conf")
	path := filepath.Join(s.configDir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func isWellFormedBundle(content string) bool {
	return strings.Contains(content, interfaceMarker) && strings.Contains(content, peerMarker)
}

func peerIdFromHeader(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	filename := params["filename"]
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// nextAvailableName resolves filename collisions with an incrementing
// numeric suffix before the extension: peer.conf, peer-1.conf, peer-2.conf.
func nextAvailableName(dir string, base string) string {
	if _, err := os.Stat(filepath.Join(dir, base)); os.IsNotExist(err) {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
}
