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
	"github.com/omochice/toy-chat-clients/internal/transport"
	"github.com/omochice/toy-chat-clients/internal/writer"
)

var rootCmd = &cobra.Command{
	Use:          "chat-writer",
	Short:        "Send one message to the chat",
	Long:         "chat-writer registers a new account or authorises with a token, then posts a single message to the chat write port.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWriter(cmd.Flags())
		if err != nil {
			return err
		}

		logger := logging.New("chat-writer")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := writer.New(cfg.Address(), transport.NewDialer(), writer.WithLogger(logger))
		result, err := w.Run(ctx, cfg.Credential(), cfg.Message)
		if err != nil {
			return err
		}

		if result.Registered {
			fmt.Fprintf(cmd.OutOrStdout(), "Your token: %s\n", result.Account.Hash)
		}
		if result.Outcome == writer.OutcomeRejected {
			fmt.Fprintln(cmd.ErrOrStderr(), "Unknown token. Check it or re-register.")
		}
		return nil
	},
}

func init() {
	config.WriterFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
