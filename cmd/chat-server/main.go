package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omochice/toy-chat-clients/internal/config"
	"github.com/omochice/toy-chat-clients/internal/logging"
	"github.com/omochice/toy-chat-clients/internal/server"
)

var rootCmd = &cobra.Command{
	Use:          "chat-server",
	Short:        "Run a local chat server",
	Long:         "chat-server serves the read and write ports the chat clients talk to. Both ports accept plain TCP and WebSocket connections.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(cmd.Flags())
		if err != nil {
			return err
		}

		logger := logging.New("chat-server")
		srv := server.New(cfg.ReadAddress(), cfg.WriteAddress(), server.WithLogger(logger))
		if err := srv.Listen(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Serve()
		}()

		logger.Info().Str("read", srv.ReadAddr()).Str("write", srv.WriteAddr()).Msg("server started")

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			srv.Stop()
		}
		return nil
	},
}

func init() {
	config.ServerFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
