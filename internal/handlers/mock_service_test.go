package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"powersense/internal/models"
	"powersense/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSchedule struct {
	slots []models.ScheduleSlot
	view  service.CountdownView
	calls int
	mu    sync.Mutex
}

func (m *mockSchedule) Slots() []models.ScheduleSlot { return m.slots }
func (m *mockSchedule) View(now time.Time) service.CountdownView {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	v := m.view
	v.At = now
	return v
}

type mockTelemetry struct {
	snapshot service.UsageSnapshot
	capacity int
	interval time.Duration
	source   service.Source
}

func (m *mockTelemetry) Run(ctx context.Context, tick time.Duration) {}
func (m *mockTelemetry) Snapshot() service.UsageSnapshot             { return m.snapshot }
func (m *mockTelemetry) Capacity() int                               { return m.capacity }
func (m *mockTelemetry) Interval() time.Duration                     { return m.interval }
func (m *mockTelemetry) Source() service.Source                      { return m.source }

type mockDashboard struct {
	state       models.DashboardState
	navigateErr error
	toggleErr   error
	device      models.Device
	rule        models.AutomationRule

	lastUser   int
	lastPage   models.Page
	lastToggle string
}

func (m *mockDashboard) State(ctx context.Context, userID int) models.DashboardState {
	m.lastUser = userID
	return m.state
}
func (m *mockDashboard) Navigate(ctx context.Context, userID int, page models.Page) (models.DashboardState, error) {
	m.lastUser, m.lastPage = userID, page
	if m.navigateErr != nil {
		return models.DashboardState{}, m.navigateErr
	}
	st := m.state
	st.Page = page
	return st, nil
}
func (m *mockDashboard) Devices(ctx context.Context, userID int) service.DeviceSummary {
	m.lastUser = userID
	return service.DeviceSummary{Devices: m.state.Devices, TotalConsumptionW: service.TotalConsumption(m.state.Devices)}
}
func (m *mockDashboard) ToggleDevice(ctx context.Context, userID int, id string) (models.Device, error) {
	m.lastUser, m.lastToggle = userID, id
	return m.device, m.toggleErr
}
func (m *mockDashboard) Rules(ctx context.Context, userID int) []models.AutomationRule {
	m.lastUser = userID
	return m.state.Rules
}
func (m *mockDashboard) ToggleRule(ctx context.Context, userID int, id string) (models.AutomationRule, error) {
	m.lastUser, m.lastToggle = userID, id
	return m.rule, m.toggleErr
}

type mockTips struct {
	tips     []string
	err      error
	lastUser int
}

func (m *mockTips) Request(ctx context.Context, userID int) ([]string, error) {
	m.lastUser = userID
	return m.tips, m.err
}

type mockEventLog struct {
	resp       []models.DashboardEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DashboardEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func authedRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
