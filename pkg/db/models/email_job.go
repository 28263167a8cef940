package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marisolvega/funnelmail-backend/pkg/enums"
)

// EmailJob is one scheduled, trackable attempt to deliver a single email to a
// single recipient. Subject and HTMLBody are fully personalized at enqueue
// time; tracking artifacts are appended only to the outbound copy, never here.
type EmailJob struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	LeadID         *uuid.UUID      `gorm:"column:lead_id;type:uuid" json:"leadId,omitempty"`
	RecipientEmail string          `gorm:"column:recipient_email;type:text;not null;index" json:"recipientEmail"`
	Subject        string          `gorm:"column:subject;type:text;not null" json:"subject"`
	HTMLBody       string          `gorm:"column:html_body;type:text;not null" json:"-"`
	EmailType      string          `gorm:"column:email_type;type:text;not null" json:"emailType"`
	Status         enums.JobStatus `gorm:"column:status;type:text;not null;default:pending" json:"status"`
	ScheduledFor   time.Time       `gorm:"column:scheduled_for;not null;index" json:"scheduledFor"`
	Attempts       int             `gorm:"column:attempts;not null;default:0" json:"attempts"`
	MaxAttempts    int             `gorm:"column:max_attempts;not null;default:3" json:"maxAttempts"`
	ErrorMessage   *string         `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`
	SentAt         *time.Time      `gorm:"column:sent_at" json:"sentAt,omitempty"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (EmailJob) TableName() string { return "email_jobs" }
