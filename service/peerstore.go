package service

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/database"
	"github.com/ZKyNetOfficial/zkynet-client/database/model"
	"github.com/ZKyNetOfficial/zkynet-client/logger"
)

// PeerStoreService persists peer identities per server. Rows are keyed by a
// hash of (api url, display name); renaming a server therefore starts a
// fresh identity and orphans the old row, which matches upstream behavior.
//
// An identity whose credential file is gone from disk is never handed out:
// Get purges the row and reports missing instead.
type PeerStoreService struct {
	mu sync.Mutex
}

func NewPeerStoreService() *PeerStoreService {
	return &PeerStoreService{}
}

// ServerKey derives the stable storage key for a server.
func (s *PeerStoreService) ServerKey(server *config.Server) string {
	h := sha256.Sum256([]byte(server.ApiUrl + "|" + server.Name))
	return hex.EncodeToString(h[:])
}

// Get returns the complete identity record for the server, or nil. A row
// referencing a missing credential file is treated as absent and removed so
// partial state can never be observed.
func (s *PeerStoreService) Get(server *config.Server) *model.PeerIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := database.GetDB()
	var identity model.PeerIdentity
	err := db.Where("server_key = ?", s.ServerKey(server)).First(&identity).Error
	if err != nil {
		if !database.IsNotFound(err) {
			logger.Warning("peer store lookup failed:", err)
		}
		return nil
	}
	if identity.PeerId == "" || identity.ConfigPath == "" {
		logger.Warningf("peer store: purging partial identity for %s", server.Name)
		db.Delete(&model.PeerIdentity{}, identity.Id)
		return nil
	}
	if _, err := os.Stat(identity.ConfigPath); err != nil {
		logger.Warningf("peer store: config file %s missing, purging identity", identity.ConfigPath)
		db.Delete(&model.PeerIdentity{}, identity.Id)
		return nil
	}
	return &identity
}

// Put records the identity, its issue time and the credential path in one
// row write.
func (s *PeerStoreService) Put(server *config.Server, peerId string, configPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := database.GetDB()
	key := s.ServerKey(server)
	identity := model.PeerIdentity{
		ServerKey:  key,
		PeerId:     peerId,
		IssuedAt:   time.Now().Unix(),
		ConfigPath: configPath,
	}
	var existing model.PeerIdentity
	err := db.Where("server_key = ?", key).First(&existing).Error
	if err == nil {
		identity.Id = existing.Id
		return db.Save(&identity).Error
	}
	if !database.IsNotFound(err) {
		return err
	}
	return db.Create(&identity).Error
}

// Clear removes the identity row and its credential file. File removal
// failures are logged and swallowed so cleanup never blocks a reconnect.
func (s *PeerStoreService) Clear(server *config.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := database.GetDB()
	key := s.ServerKey(server)
	var identity model.PeerIdentity
	err := db.Where("server_key = ?", key).First(&identity).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil
		}
		return err
	}
	if identity.ConfigPath != "" {
		if err := os.Remove(identity.ConfigPath); err != nil && !os.IsNotExist(err) {
			logger.Warningf("peer store: removing %s failed: %v", identity.ConfigPath, err)
		}
	}
	return db.Delete(&model.PeerIdentity{}, identity.Id).Error
}

func (s *PeerStoreService) HasIdentity(server *config.Server) bool {
	return s.Get(server) != nil
}
