package model

// PeerIdentity is the locally stored identity issued by a remote peer
// service, together with the path of its downloaded credential bundle.
// All three payload fields are written and cleared together; a row must
// never outlive its config file.
type PeerIdentity struct {
	Id         uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	ServerKey  string `json:"serverKey" gorm:"uniqueIndex"`
	PeerId     string `json:"peerId"`
	IssuedAt   int64  `json:"issuedAt"`
	ConfigPath string `json:"configPath"`
}
