package catalog

import (
	"time"

	"github.com/google/uuid"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 3 * time.Second

type Variant string

const (
	VariantSuccess Variant = "success"
	VariantDanger  Variant = "danger"
)

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Variant   Variant   `json:"variant"`
	ShownAt   time.Time `json:"shownAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newNotification(msg string, v Variant, now time.Time, ttl time.Duration) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		Message:   msg,
		Variant:   v,
		ShownAt:   now,
		ExpiresAt: now.Add(ttl),
	}
}

func (n *Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}
