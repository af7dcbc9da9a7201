package models

// AutomationRule is a static on/off rule; it has no execution semantics.
type AutomationRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsEnabled   bool   `json:"is_enabled"`
}
