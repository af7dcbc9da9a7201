package main

import (
	"context"
	"fmt"

	"powersense/internal/config"
	"powersense/internal/models"
	"powersense/internal/service"

	"github.com/spf13/cobra"
)

var tipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Generate power-saving tips for the default devices",
	RunE:  runTips,
}

func init() {
	rootCmd.AddCommand(tipsCmd)
}

func runTips(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Tips.Timeout)
	defer cancel()

	svc := service.NewTipsService(tipGenerator(cfg), nil, nil, nil)
	tips, outcome := svc.PowerSavingTips(ctx, models.DefaultDevices())
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "tips (%s):\n", outcome)
	for i, t := range tips {
		_, _ = fmt.Fprintf(out, "%d. %s\n", i+1, t)
	}
	return nil
}
