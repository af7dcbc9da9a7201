package main

import (
	"fmt"
	"time"

	"powersense/internal/config"
	"powersense/internal/gemini"
	"powersense/internal/models"
	"powersense/internal/service"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "powersense",
	Short:        "PowerSense smart-home dashboard backend",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (default configs/config.yml)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// scheduleFromConfig places the configured slots relative to now.
func scheduleFromConfig(cfg *config.Config, now time.Time) ([]models.ScheduleSlot, error) {
	stage, ok := models.ParseStage(cfg.Schedule.Stage)
	if !ok {
		return nil, fmt.Errorf("schedule.stage: unknown stage %q", cfg.Schedule.Stage)
	}
	return service.BuildSchedule(now, stage, cfg.Schedule.Offsets, cfg.Schedule.Duration), nil
}

func tipGenerator(cfg *config.Config) service.TipGenerator {
	client := gemini.NewClient(cfg.Tips.APIKey, cfg.Tips.BaseURL, cfg.Tips.Model, cfg.Tips.Timeout)
	return service.NewGeminiTips(client)
}
