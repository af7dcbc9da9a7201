package models

// Page is one of the dashboard views.
type Page string

const (
	PageSchedule   Page = "schedule"
	PageDevices    Page = "devices"
	PageUsage      Page = "usage"
	PageAutomation Page = "automation"
	PageAI         Page = "ai"
	PagePremium    Page = "premium"
)

// Pages lists the views in sidebar order.
var Pages = []Page{PageSchedule, PageDevices, PageUsage, PageAutomation, PageAI, PagePremium}

// Valid reports whether p names a known view.
func (p Page) Valid() bool {
	for _, known := range Pages {
		if p == known {
			return true
		}
	}
	return false
}

// TipStatus is the state of the AI helper trigger.
type TipStatus string

const (
	TipsIdle    TipStatus = "idle"
	TipsLoading TipStatus = "loading"
)

// DashboardState is a user's session state.
type DashboardState struct {
	Page      Page             `json:"page"`
	Devices   []Device         `json:"devices"`
	Rules     []AutomationRule `json:"rules"`
	Tips      []string         `json:"tips"`
	TipStatus TipStatus        `json:"tip_status"`
}

// PremiumFeature is a locked upsell card.
type PremiumFeature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Locked      bool   `json:"locked"`
}
