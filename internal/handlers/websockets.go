package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"powersense/internal/metrics"
	"powersense/internal/models"
	"powersense/internal/service"
	"powersense/internal/ticker"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	countdownCadence = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms

	viewSchedule = "schedule"
	viewUsage    = "usage"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// usageFrame is one push of the usage view.
type usageFrame struct {
	Capacity int               `json:"capacity"`
	Samples  []models.Sample   `json:"samples"`
	Stats    models.UsageStats `json:"stats"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn serializes writers; gorilla allows one concurrent writer per connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// liveView produces the first frame on connect and one frame per tick.
// A nil frame with a nil error skips the tick.
type liveView struct {
	name     string
	msgType  string
	interval time.Duration
	initial  func() (any, error)
	tick     func(now time.Time) (any, error)
}

// @Summary      Live countdown
// @Description  WebSocket; pushes {countdown, stage, next, upcoming} every second (override with ?interval= or ?interval_ms=)
// @Tags         schedule
// @Router       /ws/schedule [get]
// @Security     BearerAuth
func (h *Handler) wsSchedule(c *gin.Context) {
	sched := h.services.Schedule
	h.serveLive(c, liveView{
		name:     viewSchedule,
		msgType:  "countdown",
		interval: h.parseInterval(c, countdownCadence),
		initial:  func() (any, error) { return sched.View(time.Now()), nil },
		tick: func(now time.Time) (any, error) {
			h.recorder().CountdownTick()
			return sched.View(now), nil
		},
	})
}

// @Summary      Live usage chart
// @Description  WebSocket; seeds a private rolling buffer, then slides it once per sample interval
// @Tags         usage
// @Router       /ws/usage [get]
// @Security     BearerAuth
func (h *Handler) wsUsage(c *gin.Context) {
	tel := h.services.Telemetry
	capacity := tel.Capacity()
	src := tel.Source()

	// owned by the view task after the initial frame
	var buf []models.Sample
	h.serveLive(c, liveView{
		name:     viewUsage,
		msgType:  "usage",
		interval: h.parseInterval(c, tel.Interval()),
		initial: func() (any, error) {
			seeded, err := service.Seed(capacity, tel.Interval(), src, time.Now())
			if err != nil {
				return nil, err
			}
			buf = seeded
			return newUsageFrame(capacity, buf), nil
		},
		tick: func(now time.Time) (any, error) {
			next, err := service.Advance(buf, capacity, src, now)
			if err != nil {
				h.recorder().SampleFailed(viewUsage)
				if h.log != nil {
					h.log.Warnw("ws_usage_sample_failed", "err", err)
				}
				return nil, nil
			}
			buf = next
			h.recorder().SampleGenerated(viewUsage)
			return newUsageFrame(capacity, buf), nil
		},
	})
}

func newUsageFrame(capacity int, samples []models.Sample) usageFrame {
	return usageFrame{Capacity: capacity, Samples: samples, Stats: service.Stats(samples)}
}

// serveLive upgrades the request and runs the view until the client goes away.
// The view tick and keep-alive pings are ticker tasks released through one handle.
func (h *Handler) serveLive(c *gin.Context, v liveView) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "view", v.name, "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	rec := h.recorder()
	rec.ViewOpened(v.name)
	defer rec.ViewClosed(v.name)

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ws := &wsConn{conn: conn}
	first, err := v.initial()
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_initial_frame_failed", "view", v.name, "err", err)
		}
		_ = ws.writeJSON(wsEnvelope{Type: "error", Error: err.Error()})
		return
	}
	if err := ws.writeJSON(wsEnvelope{Type: v.msgType, Data: first}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "view", v.name, "err", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	handle := ticker.Start(ctx,
		ticker.Task{
			Name:     v.name,
			Interval: v.interval,
			Run: func(ctx context.Context, now time.Time) {
				frame, err := v.tick(now)
				if err != nil || frame == nil {
					return
				}
				if err := ws.writeJSON(wsEnvelope{Type: v.msgType, Data: frame}); err != nil {
					if h.log != nil {
						h.log.Infow("ws_write_failed", "view", v.name, "err", err)
					}
					cancel()
				}
			},
		},
		ticker.Task{
			Name:     v.name + "-ping",
			Interval: pingPeriod,
			Run: func(ctx context.Context, now time.Time) {
				if err := ws.ping(); err != nil {
					if h.log != nil {
						h.log.Infow("ws_ping_failed", "view", v.name, "err", err)
					}
					cancel()
				}
			},
		},
	)
	defer handle.Stop()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Helper: parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context, def time.Duration) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return def
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func (h *Handler) recorder() metrics.Recorder {
	if h.services == nil || h.services.Recorder == nil {
		return metrics.Nop{}
	}
	return h.services.Recorder
}
