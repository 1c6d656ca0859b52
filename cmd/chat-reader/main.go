package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omochice/toy-chat-clients/internal/config"
	"github.com/omochice/toy-chat-clients/internal/listener"
	"github.com/omochice/toy-chat-clients/internal/logging"
	"github.com/omochice/toy-chat-clients/internal/sink"
	"github.com/omochice/toy-chat-clients/internal/transport"
)

var rootCmd = &cobra.Command{
	Use:          "chat-reader",
	Short:        "Save chat messages to a file",
	Long:         "chat-reader connects to the chat read port and appends every received line to a file, reconnecting whenever the connection drops.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadReader(cmd.Flags())
		if err != nil {
			return err
		}

		logger := logging.New("chat-reader")

		var opts []sink.Option
		if !cfg.Timestamps {
			opts = append(opts, sink.WithoutTimestamps())
		}
		out, err := sink.Open(cfg.Output, opts...)
		if err != nil {
			return err
		}
		defer out.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info().Str("address", cfg.Address()).Str("output", out.Path()).Msg("starting reader")

		l := listener.New(cfg.Address(), transport.NewDialer(), out,
			listener.WithRetryPolicy(cfg.RetryPolicy()),
			listener.WithLogger(logger),
		)
		err = l.Run(ctx)
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("reader stopped")
			return nil
		}
		return err
	},
}

func init() {
	config.ReaderFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
