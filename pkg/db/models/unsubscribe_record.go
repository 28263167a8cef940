package models

import "time"

// UnsubscribeRecord marks an email address that must never receive mail again.
// Rows are created once per address and never deleted.
type UnsubscribeRecord struct {
	Email          string    `gorm:"column:email;type:text;primaryKey" json:"email"`
	UnsubscribedAt time.Time `gorm:"column:unsubscribed_at;not null;autoCreateTime" json:"unsubscribedAt"`
}

func (UnsubscribeRecord) TableName() string { return "unsubscribe_records" }
