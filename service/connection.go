package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/database/model"
	"github.com/ZKyNetOfficial/zkynet-client/logger"
)

const (
	maxBackoff     = 32 * time.Second
	maxJitter      = 1000 * time.Millisecond
	defaultRetries = 3
)

// FailureReason classifies a failed connection sequence. Raw transport
// errors never leave this package; callers get one of these plus a short
// human-readable message.
type FailureReason string

const (
	ReasonUnreachable         FailureReason = "unreachable"
	ReasonFetchFailed         FailureReason = "fetch_failed"
	ReasonMalformedCredential FailureReason = "malformed_credential"
	ReasonExhausted           FailureReason = "exhausted"
	ReasonCircuitOpen         FailureReason = "circuit_open"
	ReasonInvalidServer       FailureReason = "invalid_server"
	ReasonInternal            FailureReason = "internal"
)

// ConnectOutcome is the closed result set of Connect. PermissionRequired is
// a terminal outcome, not an error: the caller re-invokes Connect once the
// platform permission is granted.
type ConnectOutcome interface {
	connectOutcome()
}

type Connected struct {
	RecordName string
	PeerId     string
}

type PermissionRequired struct{}

type Failed struct {
	Reason FailureReason
	Err    error
}

func (Connected) connectOutcome()          {}
func (PermissionRequired) connectOutcome() {}
func (Failed) connectOutcome()             {}

func (f Failed) Message() string {
	switch f.Reason {
	case ReasonUnreachable:
		return "server unreachable, possibly under maintenance"
	case ReasonFetchFailed:
		return "could not obtain credentials from server"
	case ReasonMalformedCredential:
		return "server returned an unusable configuration"
	case ReasonExhausted:
		return "connection failed after all retries"
	case ReasonCircuitOpen:
		return "connections temporarily unavailable, try again shortly"
	case ReasonInvalidServer:
		return "server entry is invalid or disabled"
	default:
		return "connection failed"
	}
}

// MessageHook receives short user-facing status lines (the presentation
// layer or the telegram notifier).
type MessageHook func(msg string)

// ConnectionService runs the full connect sequence for a server: probe,
// validate or fetch credentials, persist the tunnel record, permission
// gate, then activate. Retries wrap the whole sequence; one shared circuit
// breaker guards all servers.
type ConnectionService struct {
	probe     *ProbeService
	validator *ValidationService
	peers     *PeerStoreService
	api       *PeerApiService
	tunnels   *TunnelService
	manager   TunnelManager
	breaker   *CircuitBreaker

	// activateMu keeps two successful validations from racing to program
	// the interface; stop-all-then-start must be atomic.
	activateMu sync.Mutex
	notify     MessageHook
}

func NewConnectionService(probe *ProbeService, validator *ValidationService, peers *PeerStoreService,
	api *PeerApiService, tunnels *TunnelService, manager TunnelManager, breaker *CircuitBreaker) *ConnectionService {
	return &ConnectionService{
		probe:     probe,
		validator: validator,
		peers:     peers,
		api:       api,
		tunnels:   tunnels,
		manager:   manager,
		breaker:   breaker,
	}
}

func (s *ConnectionService) SetMessageHook(hook MessageHook) {
	s.notify = hook
}

func (s *ConnectionService) notifyf(format string, args ...interface{}) {
	if s.notify != nil {
		s.notify(fmt.Sprintf(format, args...))
	}
}

// backoffDelay is the deterministic part of the delay before attempt n
// (n >= 2): min(base * 2^(n-1), 32s). Jitter is added separately.
func backoffDelay(attempt int, base time.Duration) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func jitter() time.Duration {
	return time.Duration(rand.Int63n(int64(maxJitter)))
}

// Connect runs the retrying connect sequence. It returns CircuitOpen
// without any network activity while the breaker rejects requests; a
// rejection does not itself count as a new failure.
func (s *ConnectionService) Connect(ctx context.Context, server *config.Server) ConnectOutcome {
	if server == nil || server.ApiUrl == "" || !server.Enabled {
		return Failed{Reason: ReasonInvalidServer, Err: errors.New("server descriptor is invalid or disabled")}
	}
	if !s.breaker.Allow() {
		logger.Warningf("connect %s rejected, circuit breaker open", server.Name)
		s.notifyf("Connections to %s are paused, please retry in a minute", server.Name)
		return Failed{Reason: ReasonCircuitOpen, Err: errors.New("circuit breaker open")}
	}

	attempts := server.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetries
	}

	var last Failed
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(attempt, server.RetryDelay()) + jitter()
			logger.Infof("connect %s: attempt %d/%d in %v", server.Name, attempt, attempts, delay)
			select {
			case <-ctx.Done():
				s.breaker.RecordFailure()
				return Failed{Reason: ReasonExhausted, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
		outcome := s.attempt(server)
		switch o := outcome.(type) {
		case Connected:
			s.breaker.RecordSuccess()
			logger.Infof("connected to %s as peer %s", server.Name, o.PeerId)
			s.notifyf("Connected to %s", server.Name)
			return o
		case PermissionRequired:
			return o
		case Failed:
			logger.Warningf("connect %s attempt %d failed (%s): %v", server.Name, attempt, o.Reason, o.Err)
			last = o
		}
	}

	s.breaker.RecordFailure()
	s.notifyf("Could not connect to %s: %s", server.Name, last.Message())
	return Failed{Reason: ReasonExhausted, Err: last.Err}
}

// attempt is one pass through the probe -> validate -> fetch -> persist ->
// permission -> activate pipeline. Persistent writes happen only after the
// step that produced them fully succeeded.
func (s *ConnectionService) attempt(server *config.Server) ConnectOutcome {
	if server.ProbeEndpoint != "" {
		if !s.probe.CheckReachable(server.ProbeEndpoint, server.Timeout()) {
			return Failed{Reason: ReasonUnreachable, Err: fmt.Errorf("probe of %s failed", server.ProbeEndpoint)}
		}
	}

	result, err := s.validator.Validate(server)
	if err != nil {
		return Failed{Reason: ReasonFetchFailed, Err: fmt.Errorf("verify round-trip: %w", err)}
	}

	var peerId, content string
	switch r := result.(type) {
	case ValidationFound:
		data, err := os.ReadFile(r.ConfigPath)
		if err != nil {
			// Raced with a cleanup; clear so the next attempt fetches.
			if err := s.peers.Clear(server); err != nil {
				logger.Warning("clearing raced identity failed:", err)
			}
			return Failed{Reason: ReasonFetchFailed, Err: fmt.Errorf("read cached bundle: %w", err)}
		}
		peerId, content = r.PeerId, string(data)
	case ValidationMissing, ValidationRejected:
		cred, err := s.fetchCredential(server)
		if err != nil {
			if errors.Is(err, ErrMalformedCredential) {
				return Failed{Reason: ReasonMalformedCredential, Err: err}
			}
			return Failed{Reason: ReasonFetchFailed, Err: err}
		}
		path, err := s.api.WriteCredential(cred.PeerId, cred.Content)
		if err != nil {
			return Failed{Reason: ReasonFetchFailed, Err: fmt.Errorf("store bundle: %w", err)}
		}
		if err := s.peers.Put(server, cred.PeerId, path); err != nil {
			return Failed{Reason: ReasonFetchFailed, Err: fmt.Errorf("store identity: %w", err)}
		}
		peerId, content = cred.PeerId, cred.Content
	}

	name := RecordNameFor(server.Name)
	record, err := s.tunnels.Upsert(name, server.Id, content)
	if err != nil {
		return Failed{Reason: ReasonInternal, Err: fmt.Errorf("persist tunnel record: %w", err)}
	}

	if !s.manager.HasPermission() {
		logger.Infof("connect %s: tunneling permission missing", server.Name)
		return PermissionRequired{}
	}

	if err := s.activate(record); err != nil {
		return Failed{Reason: ReasonInternal, Err: err}
	}
	return Connected{RecordName: name, PeerId: peerId}
}

// fetchCredential mints remotely; servers carrying an embedded test
// credential skip the network, which keeps offline test targets usable.
func (s *ConnectionService) fetchCredential(server *config.Server) (*Credential, error) {
	if server.TestCredential != "" {
		if !isWellFormedBundle(server.TestCredential) {
			return nil, ErrMalformedCredential
		}
		return &Credential{PeerId: "test-" + server.Id, Content: server.TestCredential}, nil
	}
	return s.api.MintAndFetch(server)
}

// activate stops whatever is running, then starts the new record. Stop
// failures on stale records are logged and skipped; the single-active
// invariant is enforced here, under one lock.
func (s *ConnectionService) activate(record *model.TunnelRecord) error {
	s.activateMu.Lock()
	defer s.activateMu.Unlock()

	records, err := s.tunnels.FindAll()
	if err != nil {
		return fmt.Errorf("list tunnel records: %w", err)
	}
	for _, r := range records {
		if err := s.manager.Stop(r.Name); err != nil {
			logger.Warningf("stopping tunnel %s failed: %v", r.Name, err)
		}
	}
	if err := s.tunnels.ClearActive(); err != nil {
		logger.Warning("clearing active flags failed:", err)
	}
	if err := s.manager.Start(record); err != nil {
		return fmt.Errorf("start tunnel %s: %w", record.Name, err)
	}
	if err := s.tunnels.SetActive(record.Name); err != nil {
		logger.Warning("marking tunnel active failed:", err)
	}
	return nil
}

// Disconnect stops the active tunnel, if any.
func (s *ConnectionService) Disconnect() error {
	s.activateMu.Lock()
	defer s.activateMu.Unlock()
	record, err := s.tunnels.FindActive()
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	if err := s.manager.Stop(record.Name); err != nil {
		return fmt.Errorf("stop tunnel %s: %w", record.Name, err)
	}
	return s.tunnels.ClearActive()
}

// CleanupPeer revokes and forgets the identity for a server. Remote
// revocation is best effort; local state is cleared regardless.
func (s *ConnectionService) CleanupPeer(server *config.Server) error {
	if identity := s.peers.Get(server); identity != nil {
		if ok := s.api.Revoke(server, identity.PeerId); !ok {
			logger.Warningf("remote revoke of peer %s failed, clearing local state anyway", identity.PeerId)
		}
	}
	return s.peers.Clear(server)
}

// HealthCheck re-probes a connected server's endpoint. False tells the
// caller (the cron job) to run a disconnect-and-reconnect cycle; this
// method never triggers one itself.
func (s *ConnectionService) HealthCheck(server *config.Server) bool {
	if server.ProbeEndpoint == "" {
		return true
	}
	return s.probe.CheckReachable(server.ProbeEndpoint, server.Timeout())
}
