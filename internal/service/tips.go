package service

import (
	"context"
	"fmt"
	"strings"

	"powersense/internal/gemini"
	"powersense/internal/logger"
	"powersense/internal/metrics"
	"powersense/internal/models"
)

const (
	maxTips         = 3
	tipsTemperature = 0.7
)

// Tip outcomes, also used as metric labels.
const (
	TipsOutcomeAI       = "ai"
	TipsOutcomeOffline  = "offline"
	TipsOutcomeFallback = "fallback"
)

// OfflineTips are served when no API key is configured.
var OfflineTips = []string{
	"AI is offline. Tip: Turn off high-power devices before load shedding.",
	"AI is offline. Tip: Ensure your backup batteries are fully charged.",
	"AI is offline. Tip: Unplug chargers and appliances when not in use.",
}

// ErrorTips are served when the generation call fails or returns nothing.
var ErrorTips = []string{
	"Could not generate AI tips at the moment. Please try again later.",
	"Check your device status and try reducing load on non-essential appliances.",
	"Prioritize charging essential electronics like phones and laptops.",
}

// TipGenerator produces raw tips for a prompt.
type TipGenerator interface {
	Configured() bool
	GenerateTips(ctx context.Context, prompt string) ([]string, error)
}

// GeminiTips asks the model for a JSON object {"tips": [...]}.
type GeminiTips struct {
	client *gemini.Client
}

func NewGeminiTips(client *gemini.Client) *GeminiTips { return &GeminiTips{client: client} }

func (g *GeminiTips) Configured() bool { return g.client != nil && g.client.Configured() }

var tipsSchema = &gemini.Schema{
	Type: "OBJECT",
	Properties: map[string]*gemini.Schema{
		"tips": {
			Type:        "ARRAY",
			Description: "A list of 3 power-saving tips.",
			Items:       &gemini.Schema{Type: "STRING"},
		},
	},
	Required: []string{"tips"},
}

func (g *GeminiTips) GenerateTips(ctx context.Context, prompt string) ([]string, error) {
	var out struct {
		Tips []string `json:"tips"`
	}
	if err := g.client.GenerateJSON(ctx, prompt, tipsSchema, tipsTemperature, &out); err != nil {
		return nil, err
	}
	return out.Tips, nil
}

// TipsService turns the device list into power-saving advice.
type TipsService struct {
	gen  TipGenerator
	dash *DashboardService
	rec  metrics.Recorder
	log  *logger.Logger
}

func NewTipsService(gen TipGenerator, dash *DashboardService, rec metrics.Recorder, log *logger.Logger) *TipsService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &TipsService{gen: gen, dash: dash, rec: rec, log: log}
}

// PowerSavingTips never fails: it returns OfflineTips when unconfigured and
// ErrorTips when generation fails or yields nothing. At most three tips are returned.
func (s *TipsService) PowerSavingTips(ctx context.Context, devices []models.Device) ([]string, string) {
	if s.gen == nil || !s.gen.Configured() {
		return clone(OfflineTips), TipsOutcomeOffline
	}
	tips, err := s.gen.GenerateTips(ctx, BuildTipsPrompt(devices))
	tips = cleanTips(tips)
	if err != nil || len(tips) == 0 {
		if s.log != nil {
			s.log.Warnw("tips_fetch_failed", "err", err, "tips", len(tips))
		}
		return clone(ErrorTips), TipsOutcomeFallback
	}
	return tips, TipsOutcomeAI
}

// Request generates tips for the user's current devices. Only one request per
// session may be in flight; a concurrent call gets ErrTipsInFlight. The session
// always returns to idle with a non-empty tip list.
func (s *TipsService) Request(ctx context.Context, userID int) ([]string, error) {
	devices, err := s.dash.beginTips(userID)
	if err != nil {
		return nil, err
	}
	tips, outcome := s.PowerSavingTips(ctx, devices)
	s.dash.finishTips(userID, tips)
	s.rec.TipsServed(outcome)

	typ := models.EventTipsGenerated
	if outcome != TipsOutcomeAI {
		typ = models.EventTipsFallback
	}
	// the request context may already be canceled; the outcome is still recorded
	s.dash.appendEvent(context.WithoutCancel(ctx), models.DashboardEvent{
		UserID:      userID,
		Type:        typ,
		Description: fmt.Sprintf("%d tips served (%s)", len(tips), outcome),
		Metadata:    map[string]any{"outcome": outcome},
	})
	return tips, nil
}

// BuildTipsPrompt describes the devices for the model.
func BuildTipsPrompt(devices []models.Device) string {
	lines := make([]string, 0, len(devices))
	for _, d := range devices {
		status := "OFF"
		if d.IsOn {
			status = "ON"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %dW, Status: %s", d.Name, d.Type, d.PowerWatts, status))
	}
	return `You are PowerSense AI, an expert in household energy management in South Africa during load shedding.
Your goal is to provide clear, actionable, and concise power-saving tips.

Current context:
- Load shedding is a frequent reality.
- The user wants to minimize electricity costs and maximize backup battery life.

Here is the current status of the user's smart devices:
` + strings.Join(lines, "\n") + `

Based ONLY on the device list provided, generate 3 unique and actionable power-saving recommendations.
Present the tips as if you are speaking directly to the user.
Focus on the highest-impact actions they can take right now.`
}

func cleanTips(tips []string) []string {
	out := make([]string, 0, maxTips)
	for _, t := range tips {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
		if len(out) == maxTips {
			break
		}
	}
	return out
}

func clone(s []string) []string { return append([]string(nil), s...) }
