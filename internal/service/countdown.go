package service

import (
	"fmt"
	"sort"
	"time"

	"powersense/internal/models"
)

// Sentinels returned instead of a countdown.
const (
	NoSchedule      = "No schedule"
	NoUpcomingSlots = "No upcoming slots"
)

const (
	upcomingSlotsShown = 4
	slotClockLayout    = "15:04"
	// largest duration that still renders as two-digit hours
	maxCountdown = 99*time.Hour + 59*time.Minute + 59*time.Second
)

// NextSlot returns the first slot starting strictly after now. Slots must be sorted by StartTime.
func NextSlot(slots []models.ScheduleSlot, now time.Time) (models.ScheduleSlot, bool) {
	for _, slot := range slots {
		if slot.StartTime.After(now) {
			return slot, true
		}
	}
	return models.ScheduleSlot{}, false
}

// NextSlotCountdown renders the time until the next slot as HH:MM:SS,
// or one of the NoSchedule / NoUpcomingSlots sentinels.
func NextSlotCountdown(slots []models.ScheduleSlot, now time.Time) string {
	if len(slots) == 0 {
		return NoSchedule
	}
	next, ok := NextSlot(slots, now)
	if !ok {
		return NoUpcomingSlots
	}
	return FormatCountdown(next.StartTime.Sub(now))
}

// FormatCountdown formats d as zero-padded HH:MM:SS, truncating sub-second parts.
// Negative durations clamp to 00:00:00 and anything past 99:59:59 saturates.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d > maxCountdown {
		d = maxCountdown
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// SlotView is a slot with display labels.
type SlotView struct {
	models.ScheduleSlot
	StartLabel string `json:"start_label"`
	EndLabel   string `json:"end_label"`
}

// Upcoming returns the first n slots with HH:MM labels in loc.
func Upcoming(slots []models.ScheduleSlot, n int, loc *time.Location) []SlotView {
	if n > len(slots) {
		n = len(slots)
	}
	if loc == nil {
		loc = time.Local
	}
	out := make([]SlotView, 0, n)
	for _, slot := range slots[:n] {
		out = append(out, SlotView{
			ScheduleSlot: slot,
			StartLabel:   slot.StartTime.In(loc).Format(slotClockLayout),
			EndLabel:     slot.EndTime.In(loc).Format(slotClockLayout),
		})
	}
	return out
}

// CountdownView is what the schedule page shows at one instant.
type CountdownView struct {
	Countdown string               `json:"countdown"`
	Stage     models.Stage         `json:"stage,omitempty"`
	Next      *models.ScheduleSlot `json:"next,omitempty"`
	Upcoming  []SlotView           `json:"upcoming"`
	At        time.Time            `json:"at"`
}

// BuildSchedule places one slot of length dur at each offset from now, sorted by start.
func BuildSchedule(now time.Time, stage models.Stage, offsets []time.Duration, dur time.Duration) []models.ScheduleSlot {
	slots := make([]models.ScheduleSlot, 0, len(offsets))
	for _, off := range offsets {
		start := now.Add(off)
		slots = append(slots, models.ScheduleSlot{Stage: stage, StartTime: start, EndTime: start.Add(dur)})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots
}

// ScheduleService exposes the fixed outage schedule.
type ScheduleService struct {
	slots []models.ScheduleSlot
	loc   *time.Location
}

// NewScheduleService copies slots; callers keep ownership of their slice.
func NewScheduleService(slots []models.ScheduleSlot, loc *time.Location) *ScheduleService {
	cp := make([]models.ScheduleSlot, len(slots))
	copy(cp, slots)
	return &ScheduleService{slots: cp, loc: loc}
}

// Slots returns a copy of the schedule.
func (s *ScheduleService) Slots() []models.ScheduleSlot {
	cp := make([]models.ScheduleSlot, len(s.slots))
	copy(cp, s.slots)
	return cp
}

// View evaluates the countdown against now. It keeps no state between calls.
func (s *ScheduleService) View(now time.Time) CountdownView {
	v := CountdownView{
		Countdown: NextSlotCountdown(s.slots, now),
		Upcoming:  Upcoming(s.slots, upcomingSlotsShown, s.loc),
		At:        now.UTC(),
	}
	if next, ok := NextSlot(s.slots, now); ok {
		v.Stage = next.Stage
		v.Next = &next
	}
	return v
}
