package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marisolvega/funnelmail-backend/pkg/enums"
)

// DeliveryLogEntry is an append-only record of a dispatch outcome. One row is
// written per successful send and per failed attempt.
type DeliveryLogEntry struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	LeadID           *uuid.UUID           `gorm:"column:lead_id;type:uuid" json:"leadId,omitempty"`
	RecipientEmail   string               `gorm:"column:recipient_email;type:text;not null;index" json:"recipientEmail"`
	EmailType        string               `gorm:"column:email_type;type:text;not null" json:"emailType"`
	Subject          string               `gorm:"column:subject;type:text;not null" json:"subject"`
	Status           enums.DeliveryStatus `gorm:"column:status;type:text;not null;index" json:"status"`
	ProviderResponse *string              `gorm:"column:provider_response;type:text" json:"providerResponse,omitempty"`
	ErrorMessage     *string              `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`
	SentAt           time.Time            `gorm:"column:sent_at;not null;index" json:"sentAt"`
}

func (DeliveryLogEntry) TableName() string { return "delivery_log_entries" }
