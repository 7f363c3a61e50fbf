package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qoncrete/qoncrete-go"
	"github.com/qoncrete/qoncrete-go/internal/source"
)

func newSendCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send [files...]",
		Short: "Send JSON lines from files or stdin, then exit",
		Long: `Send every line of the given files (or stdin when none, or "-") as one
record. Files ending in .gz, .zst or .lz4 are decompressed. Exits non-zero
if any record could not be delivered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{source.Stdin}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := a.newClient()
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}

			total := 0
			for _, path := range args {
				n, err := a.sendFile(ctx, cmd.InOrStdin(), client, path)
				total += n
				if err != nil {
					_ = client.Close(context.Background())
					return err
				}
			}

			if err := client.Flush(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("interrupted before all records were delivered")
			}
			if err := client.Close(context.Background()); err != nil {
				a.logger.Warn().Err(err).Msg("close")
			}

			failed := a.failures.Load()
			a.logger.Info().Int("records", total).Int64("failures", failed).Msg("done")
			if failed > 0 {
				return fmt.Errorf("%d failures while sending %d records", failed, total)
			}
			return nil
		},
	}
}

func (a *app) sendFile(ctx context.Context, stdin io.Reader, client *qoncrete.Client, path string) (int, error) {
	var r io.Reader
	if path == source.Stdin {
		r = stdin
	} else {
		rc, err := source.Open(path)
		if err != nil {
			return 0, err
		}
		defer rc.Close()
		r = rc
	}

	n, err := source.ReadLines(ctx, r, func(line []byte, _ int64) error {
		client.Send(line)
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("read %s: %w", path, err)
	}
	a.logger.Debug().Str("path", path).Int("records", n).Msg("read input")
	return n, nil
}
