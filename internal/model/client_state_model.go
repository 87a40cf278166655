package model

import (
	"time"

	"gorm.io/datatypes"
)

// ClientState is one durable client-state record (transcript, history
// cache, auth token) when state lives in Postgres.
type ClientState struct {
	Key       string         `gorm:"type:varchar(255);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ClientState) TableName() string {
	return "client_states"
}
