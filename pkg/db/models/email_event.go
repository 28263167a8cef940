package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marisolvega/funnelmail-backend/pkg/enums"
)

// EmailEvent records a post-send engagement signal (open, click, unsubscribe)
// or the send itself, keyed by the job id embedded in tracking tokens.
type EmailEvent struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EmailID   string                 `gorm:"column:email_id;type:text;not null;index" json:"emailId"`
	Action    enums.EmailEventAction `gorm:"column:action;type:text;not null" json:"action"`
	Timestamp time.Time              `gorm:"column:timestamp;not null;autoCreateTime" json:"timestamp"`
	EventData json.RawMessage        `gorm:"column:event_data;type:jsonb" json:"eventData,omitempty"`
}

func (EmailEvent) TableName() string { return "email_events" }
