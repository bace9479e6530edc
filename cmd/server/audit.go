package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/event-management-system/internal/config"
	"github.com/iliyamo/event-management-system/internal/queue"
)

func auditCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Append confirmed reservations from RabbitMQ to an audit log",
		Long: `Consume reservation.confirmed messages published by "ems serve" with
PUBLISH_RESERVATIONS=true and append one line per reservation to
<dir>/reservations.log.  The consumer reconnects until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if dir == "" {
				dir = cfg.AuditLogDir
			}
			logger := config.NewLogger(os.Stderr, cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = queue.StartReservationConsumer(ctx, cfg.AMQPURL, dir, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "audit log directory (default $AUDIT_LOG_DIR or logs)")

	return cmd
}
