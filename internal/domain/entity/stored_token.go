package entity

import "time"

// StoredToken is the persisted bearer token of the desk's API session
type StoredToken struct {
	Name      string    `gorm:"primaryKey;size:100"`
	Token     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for StoredToken
func (StoredToken) TableName() string {
	return "desk_session_tokens"
}
