// internal/workers/notifications/run-notification/models.go
package runnotification

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

const (
	ChannelEmail = "email"
	ChannelSNS   = "sns"
)

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"`
}
