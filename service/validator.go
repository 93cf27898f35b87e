package service

import (
	"os"

	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/logger"
)

// ValidationResult is the closed outcome set of a peer validation pass.
// Exactly one of ValidationFound, ValidationMissing or ValidationRejected
// is returned; errors are reserved for verify round-trips that could not
// complete, which the orchestrator retries rather than misreading as a
// missing or rejected identity.
type ValidationResult interface {
	validationResult()
}

// ValidationFound: the cached identity and its bundle check out.
type ValidationFound struct {
	PeerId     string
	ConfigPath string
}

// ValidationMissing: no usable local identity; mint a fresh one.
type ValidationMissing struct{}

// ValidationRejected: the remote service no longer recognizes the cached
// identity. Local state has already been cleared when this is returned.
type ValidationRejected struct{}

func (ValidationFound) validationResult()    {}
func (ValidationMissing) validationResult()  {}
func (ValidationRejected) validationResult() {}

// ValidationService decides between reusing a cached credential and
// fetching a new one.
type ValidationService struct {
	peers *PeerStoreService
	api   *PeerApiService
}

func NewValidationService(peers *PeerStoreService, api *PeerApiService) *ValidationService {
	return &ValidationService{peers: peers, api: api}
}

// Validate runs the local checks first, then confirms the identity with the
// remote service. On rejection the stale identity and bundle are cleared
// before returning so no stale pairing survives into the fetch.
func (s *ValidationService) Validate(server *config.Server) (ValidationResult, error) {
	identity := s.peers.Get(server)
	if identity == nil {
		return ValidationMissing{}, nil
	}
	content, err := os.ReadFile(identity.ConfigPath)
	if err != nil || !isWellFormedBundle(string(content)) {
		logger.Infof("validator: cached bundle for %s unusable, clearing", server.Name)
		if err := s.peers.Clear(server); err != nil {
			logger.Warning("validator: clear failed:", err)
		}
		return ValidationMissing{}, nil
	}

	active, err := s.api.Verify(server, identity.PeerId)
	if err != nil {
		// Can't tell whether the identity is good; bubble up so the
		// retry loop decides, instead of discarding local state.
		return nil, err
	}
	if !active {
		logger.Infof("validator: server rejected peer %s, clearing local state", identity.PeerId)
		if err := s.peers.Clear(server); err != nil {
			logger.Warning("validator: clear failed:", err)
		}
		return ValidationRejected{}, nil
	}
	return ValidationFound{PeerId: identity.PeerId, ConfigPath: identity.ConfigPath}, nil
}
