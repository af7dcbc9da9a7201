package service

import "time"

// LogFilter supports history filtering by time range, type and user.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // "", "PAGE_CHANGE", "DEVICE_TOGGLE", "RULE_TOGGLE", "TIPS_GENERATED", "TIPS_FALLBACK"
	UserID int       // zero means every user
}
