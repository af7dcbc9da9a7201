package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"powersense/internal/models"
	"powersense/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c, time.Second)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialLive(t *testing.T, s *service.Service, path string, query url.Values) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(s))
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = path
	u.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), authHeader("valid"))
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_Schedule_InitialAndPeriodic(t *testing.T) {
	sched := &mockSchedule{view: service.CountdownView{Countdown: "01:02:03", Stage: models.Stage4}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Schedule: sched}

	conn := dialLive(t, s, "/ws/schedule", url.Values{"interval_ms": {"20"}})

	env := readEnvelope(t, conn)
	if env.Type != "countdown" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var view service.CountdownView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if view.Countdown != "01:02:03" || view.Stage != models.Stage4 {
		t.Fatalf("unexpected view: %+v", view)
	}

	if env = readEnvelope(t, conn); env.Type != "countdown" {
		t.Fatalf("expected type=countdown, got %+v", env)
	}
}

func TestWebSocket_Usage_SlidesWindow(t *testing.T) {
	n := 0
	src := service.SourceFunc(func(at time.Time) (models.Sample, error) {
		n++
		return models.Sample{Label: at.Format("04:05"), Value: float64(n)}, nil
	})
	tel := &mockTelemetry{capacity: 3, interval: 20 * time.Millisecond, source: src}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Telemetry: tel}

	conn := dialLive(t, s, "/ws/usage", nil)

	var first usageFrame
	env := readEnvelope(t, conn)
	if env.Type != "usage" {
		t.Fatalf("bad envelope: %+v", env)
	}
	_ = json.Unmarshal(env.Data, &first)
	if first.Capacity != 3 || len(first.Samples) != 3 || first.Samples[0].Value != 1 {
		t.Fatalf("unexpected seed frame: %+v", first)
	}

	var next usageFrame
	env = readEnvelope(t, conn)
	_ = json.Unmarshal(env.Data, &next)
	if len(next.Samples) != 3 {
		t.Fatalf("window must stay at capacity, got %d", len(next.Samples))
	}
	if next.Samples[0].Value != 2 || next.Samples[2].Value != 4 {
		t.Fatalf("window did not slide: %+v", next.Samples)
	}
}

func TestWebSocket_Usage_InitialSourceError_SendsErrorAndCloses(t *testing.T) {
	src := service.SourceFunc(func(time.Time) (models.Sample, error) {
		return models.Sample{}, errors.New("meter offline")
	})
	tel := &mockTelemetry{capacity: 3, interval: time.Second, source: src}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Telemetry: tel}

	conn := dialLive(t, s, "/ws/usage", nil)

	env := readEnvelope(t, conn)
	if env.Type != "error" || env.Error != "meter offline" {
		t.Fatalf("expected error envelope, got %+v", env)
	}
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(&service.Service{Authorization: &mockAuth{}}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws/schedule"
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}
