package models

import "time"

// SettingWebhookSecret is the settings key holding the webhook HMAC secret
const SettingWebhookSecret = "WEBHOOK_SECRET"

// Setting is a durable, versioned key-value configuration entry
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"-" db:"value"`
	Version   int       `json:"version" db:"version"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
