package service

import (
	"slices"

	"powersense/internal/models"
)

// OverloadThresholdW is the total draw above which the device page warns.
const OverloadThresholdW = 2500

// ActionKind names a dashboard transition.
type ActionKind int

const (
	ActionNavigate ActionKind = iota + 1
	ActionToggleDevice
	ActionToggleRule
	ActionTipsRequested
	ActionTipsResolved
)

// Action is one user-triggered state change. Only the fields for Kind are read.
type Action struct {
	Kind ActionKind
	Page models.Page
	ID   string
	Tips []string
}

func Navigate(p models.Page) Action       { return Action{Kind: ActionNavigate, Page: p} }
func ToggleDeviceAction(id string) Action { return Action{Kind: ActionToggleDevice, ID: id} }
func ToggleRuleAction(id string) Action   { return Action{Kind: ActionToggleRule, ID: id} }
func TipsRequested() Action               { return Action{Kind: ActionTipsRequested} }
func TipsResolved(tips []string) Action   { return Action{Kind: ActionTipsResolved, Tips: tips} }

// NewDashboardState is the state a fresh session starts from.
func NewDashboardState() models.DashboardState {
	return models.DashboardState{
		Page:      models.PageSchedule,
		Devices:   models.DefaultDevices(),
		Rules:     models.DefaultRules(),
		Tips:      []string{},
		TipStatus: models.TipsIdle,
	}
}

// Reduce applies a to st and returns the next state. st is not modified;
// unknown pages and ids leave the state unchanged.
func Reduce(st models.DashboardState, a Action) models.DashboardState {
	next := cloneState(st)
	switch a.Kind {
	case ActionNavigate:
		if a.Page.Valid() {
			next.Page = a.Page
		}
	case ActionToggleDevice:
		next.Devices, _ = ToggleDevice(next.Devices, a.ID)
	case ActionToggleRule:
		next.Rules, _ = ToggleRule(next.Rules, a.ID)
	case ActionTipsRequested:
		next.TipStatus = models.TipsLoading
		next.Tips = []string{}
	case ActionTipsResolved:
		next.TipStatus = models.TipsIdle
		next.Tips = append([]string{}, a.Tips...)
	}
	return next
}

func cloneState(st models.DashboardState) models.DashboardState {
	st.Devices = slices.Clone(st.Devices)
	st.Rules = slices.Clone(st.Rules)
	st.Tips = slices.Clone(st.Tips)
	return st
}

// toggle copies items and applies flip to the first element whose key is id.
func toggle[T any](items []T, id string, key func(T) string, flip func(*T)) ([]T, bool) {
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if key(out[i]) == id {
			flip(&out[i])
			return out, true
		}
	}
	return out, false
}

// ToggleDevice flips IsOn of the device with id. The input slice is not modified.
func ToggleDevice(devices []models.Device, id string) ([]models.Device, bool) {
	return toggle(devices, id,
		func(d models.Device) string { return d.ID },
		func(d *models.Device) { d.IsOn = !d.IsOn })
}

// ToggleRule flips IsEnabled of the rule with id. The input slice is not modified.
func ToggleRule(rules []models.AutomationRule, id string) ([]models.AutomationRule, bool) {
	return toggle(rules, id,
		func(r models.AutomationRule) string { return r.ID },
		func(r *models.AutomationRule) { r.IsEnabled = !r.IsEnabled })
}

// TotalConsumption sums PowerWatts of devices that are on. A running battery counts negative.
func TotalConsumption(devices []models.Device) int {
	total := 0
	for _, d := range devices {
		if d.IsOn {
			total += d.PowerWatts
		}
	}
	return total
}

// DeviceSummary is the device page payload.
type DeviceSummary struct {
	Devices           []models.Device `json:"devices"`
	TotalConsumptionW int             `json:"total_consumption_w"`
	Overloaded        bool            `json:"overloaded"`
}

func summarizeDevices(devices []models.Device) DeviceSummary {
	total := TotalConsumption(devices)
	return DeviceSummary{
		Devices:           append([]models.Device(nil), devices...),
		TotalConsumptionW: total,
		Overloaded:        total > OverloadThresholdW,
	}
}
