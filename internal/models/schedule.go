package models

import (
	"strings"
	"time"
)

// Stage is a load-shedding severity level.
type Stage string

const (
	StageNone Stage = "None"
	Stage1    Stage = "Stage 1"
	Stage2    Stage = "Stage 2"
	Stage3    Stage = "Stage 3"
	Stage4    Stage = "Stage 4"
	Stage5    Stage = "Stage 5"
	Stage6    Stage = "Stage 6"
)

// ScheduleSlot is one planned outage window. StartTime is always before EndTime.
type ScheduleSlot struct {
	Stage     Stage     `json:"stage"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ParseStage accepts "Stage 4", "stage4", "4" or "none".
func ParseStage(s string) (Stage, bool) {
	switch normalizeStage(s) {
	case "none", "0":
		return StageNone, true
	case "stage1", "1":
		return Stage1, true
	case "stage2", "2":
		return Stage2, true
	case "stage3", "3":
		return Stage3, true
	case "stage4", "4":
		return Stage4, true
	case "stage5", "5":
		return Stage5, true
	case "stage6", "6":
		return Stage6, true
	}
	return "", false
}

var stageReplacer = strings.NewReplacer(" ", "", "_", "", "-", "")

func normalizeStage(s string) string {
	return stageReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}
