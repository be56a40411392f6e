package main

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/telegram"
)

func newTelegramCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram bot (long polling)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTelegram(cmd.Context(), e)
		},
	}
}

func runTelegram(ctx context.Context, e *env) error {
	cfg, logger := e.cfg, e.logger
	if cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}

	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, serviceName)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	err = telegram.New(api, a.chat, logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("telegram bot stopped")
		return nil
	}
	return err
}
