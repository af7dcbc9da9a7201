package models

import "time"

// Event types written to the dashboard log.
const (
	EventPageChange    = "PAGE_CHANGE"
	EventDeviceToggle  = "DEVICE_TOGGLE"
	EventRuleToggle    = "RULE_TOGGLE"
	EventTipsGenerated = "TIPS_GENERATED"
	EventTipsFallback  = "TIPS_FALLBACK"
)

// DashboardEvent is a single log entry.
type DashboardEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	UserID      int       `json:"user_id"`
	Type        string    `json:"type"`        // PAGE_CHANGE | DEVICE_TOGGLE | RULE_TOGGLE | TIPS_GENERATED | TIPS_FALLBACK
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
