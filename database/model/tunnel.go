package model

// TunnelRecord is the persisted tunnel configuration entry handed to the
// tunnel manager. Name is derived from the server display name, so
// reconnecting the same server updates the row instead of duplicating it.
type TunnelRecord struct {
	Id       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name" gorm:"uniqueIndex"`
	ServerId string `json:"serverId"`
	Config   string `json:"config"`
	Active   bool   `json:"active"`
	SavedAt  int64  `json:"savedAt"`
}
