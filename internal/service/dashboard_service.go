package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"powersense/internal/logger"
	"powersense/internal/metrics"
	"powersense/internal/models"
	"powersense/internal/repository"
)

// Domain errors for dashboard mutations.
var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrRuleNotFound   = errors.New("rule not found")
	ErrInvalidPage    = errors.New("unknown page")
	ErrTipsInFlight   = errors.New("tip request already in progress")
)

// session is one user's dashboard. mu serializes every transition on it.
type session struct {
	mu    sync.Mutex
	state models.DashboardState
}

// DashboardService keeps per-user session state in memory.
type DashboardService struct {
	mu       sync.Mutex
	sessions map[int]*session

	events repository.EventRepo
	rec    metrics.Recorder
	log    *logger.Logger
}

func NewDashboardService(events repository.EventRepo, rec metrics.Recorder, log *logger.Logger) *DashboardService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &DashboardService{
		sessions: make(map[int]*session),
		events:   events,
		rec:      rec,
		log:      log,
	}
}

// session returns the user's session, creating it from mock data on first use.
func (s *DashboardService) session(userID int) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{state: NewDashboardState()}
		s.sessions[userID] = sess
	}
	return sess
}

// dispatch runs the reducer under the session lock and returns the new state.
func (s *DashboardService) dispatch(userID int, a Action) models.DashboardState {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state = Reduce(sess.state, a)
	return cloneState(sess.state)
}

// State returns a copy of the user's dashboard.
func (s *DashboardService) State(ctx context.Context, userID int) models.DashboardState {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return cloneState(sess.state)
}

// Navigate switches the current page.
func (s *DashboardService) Navigate(ctx context.Context, userID int, page models.Page) (models.DashboardState, error) {
	if !page.Valid() {
		return models.DashboardState{}, fmt.Errorf("%w: %q", ErrInvalidPage, page)
	}
	st := s.dispatch(userID, Navigate(page))
	s.appendEvent(ctx, models.DashboardEvent{
		UserID:      userID,
		Type:        models.EventPageChange,
		Description: "Opened " + string(page),
		Metadata:    map[string]any{"page": page},
	})
	return st, nil
}

// Devices returns the device list with the consumption summary.
func (s *DashboardService) Devices(ctx context.Context, userID int) DeviceSummary {
	return summarizeDevices(s.State(ctx, userID).Devices)
}

// ToggleDevice flips one device and returns its new value.
func (s *DashboardService) ToggleDevice(ctx context.Context, userID int, id string) (models.Device, error) {
	st := s.dispatch(userID, ToggleDeviceAction(id))
	for _, d := range st.Devices {
		if d.ID == id {
			s.rec.ToggleApplied("device", true)
			s.appendEvent(ctx, models.DashboardEvent{
				UserID:      userID,
				Type:        models.EventDeviceToggle,
				Description: fmt.Sprintf("%s turned %s", d.Name, onOff(d.IsOn)),
				Metadata:    map[string]any{"device_id": d.ID, "is_on": d.IsOn},
			})
			return d, nil
		}
	}
	s.rec.ToggleApplied("device", false)
	return models.Device{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
}

// Rules returns the automation rules.
func (s *DashboardService) Rules(ctx context.Context, userID int) []models.AutomationRule {
	return s.State(ctx, userID).Rules
}

// ToggleRule flips one rule and returns its new value.
func (s *DashboardService) ToggleRule(ctx context.Context, userID int, id string) (models.AutomationRule, error) {
	st := s.dispatch(userID, ToggleRuleAction(id))
	for _, r := range st.Rules {
		if r.ID == id {
			s.rec.ToggleApplied("rule", true)
			s.appendEvent(ctx, models.DashboardEvent{
				UserID:      userID,
				Type:        models.EventRuleToggle,
				Description: fmt.Sprintf("%s %s", r.Name, enabledDisabled(r.IsEnabled)),
				Metadata:    map[string]any{"rule_id": r.ID, "is_enabled": r.IsEnabled},
			})
			return r, nil
		}
	}
	s.rec.ToggleApplied("rule", false)
	return models.AutomationRule{}, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
}

// beginTips moves the session to loading and returns the devices to describe.
// A session already loading is rejected with ErrTipsInFlight.
func (s *DashboardService) beginTips(userID int) ([]models.Device, error) {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state.TipStatus == models.TipsLoading {
		return nil, ErrTipsInFlight
	}
	sess.state = Reduce(sess.state, TipsRequested())
	return append([]models.Device(nil), sess.state.Devices...), nil
}

// finishTips stores tips and returns the session to idle.
func (s *DashboardService) finishTips(userID int, tips []string) {
	s.dispatch(userID, TipsResolved(tips))
}

// appendEvent is best effort; a failed write is logged and otherwise ignored.
func (s *DashboardService) appendEvent(ctx context.Context, e models.DashboardEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, e); err != nil && s.log != nil {
		s.log.Warnw("dashboard_event_append_failed", "type", e.Type, "user_id", e.UserID, "err", err)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func enabledDisabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
