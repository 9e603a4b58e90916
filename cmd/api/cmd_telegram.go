package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"giving-hand-api-server/internal/dialog"
	"giving-hand-api-server/internal/lifecycle"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Answer assistant questions over Telegram",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Telegram.Token == "" {
			return errors.New("telegram.token (TELEGRAM_TOKEN) is required")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m := metrics.New()
		be, err := openBackend(ctx, cfg, m)
		if err != nil {
			return err
		}
		defer be.Close()

		d, err := dialog.Load()
		if err != nil {
			return err
		}
		bot, err := telegram.New(cfg.Telegram, d, lifecycle.New(be.store, lifecycle.WithMetrics(m)), m)
		if err != nil {
			return err
		}
		if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
