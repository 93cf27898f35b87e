package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/ZKyNetOfficial/zkynet-client/database"
	"github.com/ZKyNetOfficial/zkynet-client/database/model"
)

// TunnelManager is the platform primitive that actually programs the
// network interface. The orchestrator only ever stops everything and starts
// one record, keeping a single tunnel active.
type TunnelManager interface {
	HasPermission() bool
	Stop(name string) error
	Start(record *model.TunnelRecord) error
}

var recordNameRe = regexp.MustCompile(`[^a-z0-9]+`)

// RecordNameFor derives the deterministic tunnel record name from a server
// display name, so repeat connects update the same record.
func RecordNameFor(displayName string) string {
	name := recordNameRe.ReplaceAllString(strings.ToLower(displayName), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "tunnel"
	}
	return "zkynet-" + name
}

// TunnelService is the persisted tunnel record store.
type TunnelService struct {
}

func NewTunnelService() *TunnelService {
	return &TunnelService{}
}

func (s *TunnelService) FindAll() ([]model.TunnelRecord, error) {
	db := database.GetDB()
	var records []model.TunnelRecord
	err := db.Find(&records).Error
	return records, err
}

func (s *TunnelService) FindByName(name string) (*model.TunnelRecord, error) {
	db := database.GetDB()
	var record model.TunnelRecord
	err := db.Where("name = ?", name).First(&record).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Upsert saves the record under its deterministic name, replacing the
// config content of an existing row instead of duplicating it.
func (s *TunnelService) Upsert(name string, serverId string, configContent string) (*model.TunnelRecord, error) {
	db := database.GetDB()
	existing, err := s.FindByName(name)
	if err != nil {
		return nil, err
	}
	record := &model.TunnelRecord{
		Name:     name,
		ServerId: serverId,
		Config:   configContent,
		SavedAt:  time.Now().Unix(),
	}
	if existing != nil {
		record.Id = existing.Id
		record.Active = existing.Active
		return record, db.Save(record).Error
	}
	return record, db.Create(record).Error
}

// SetActive marks one record active and all others inactive.
func (s *TunnelService) SetActive(name string) error {
	db := database.GetDB()
	if err := db.Model(&model.TunnelRecord{}).Where("name <> ?", name).Update("active", false).Error; err != nil {
		return err
	}
	return db.Model(&model.TunnelRecord{}).Where("name = ?", name).Update("active", true).Error
}

func (s *TunnelService) ClearActive() error {
	db := database.GetDB()
	return db.Model(&model.TunnelRecord{}).Where("active = ?", true).Update("active", false).Error
}

func (s *TunnelService) FindActive() (*model.TunnelRecord, error) {
	db := database.GetDB()
	var record model.TunnelRecord
	err := db.Where("active = ?", true).First(&record).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (s *TunnelService) Delete(name string) error {
	db := database.GetDB()
	return db.Where("name = ?", name).Delete(&model.TunnelRecord{}).Error
}
