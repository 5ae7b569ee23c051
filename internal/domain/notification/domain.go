package notification

import "time"

// Channel selects the delivery adapter for a config. The set is
// closed; the dispatcher keeps one adapter per value.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelWebhook Channel = "webhook"
)

// Metered reports whether sends on this channel draw down a credit
// counter. Webhooks are unlimited best-effort.
func (c Channel) Metered() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// DefaultMinInterval spaces sends to one recipient when the config
// does not set its own window.
const DefaultMinInterval = 300 * time.Second

// Config is one recipient subscription for one server, owned by the
// external CRUD layer and read here.
type Config struct {
	ID               int64         `json:"id"`
	ServerID         int64         `json:"server"`
	Channel          Channel       `json:"notification_type"`
	Recipient        string        `json:"recipient"`
	Enabled          bool          `json:"enabled"`
	NotifyOnFailure  bool          `json:"notify_on_failure"`
	NotifyOnRecovery bool          `json:"notify_on_recovery"`
	MinInterval      time.Duration `json:"min_notification_interval"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// LastSentAt is the cooldown cursor. Sending stamps the row's
// updated_at, so any other edit to the config restarts the window too;
// that coupling is confined to this accessor and Repo.StampSent.
func (c *Config) LastSentAt() time.Time { return c.UpdatedAt }
