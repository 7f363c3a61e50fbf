package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qoncrete/qoncrete-go/internal/source"
	"github.com/qoncrete/qoncrete-go/pkg/log"
	"github.com/qoncrete/qoncrete-go/pkg/state"
)

const defaultCheckpointInterval = 5 * time.Second

func newTailCommand(a *app) *cobra.Command {
	var (
		offsetFile string
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "tail FILE",
		Short: "Follow a JSON-lines file and send appended lines",
		Long: `Follow FILE like tail -F and send every appended line as one record.
The offset of the last line read is saved to the offset file, so a restart
resumes from there. Stops on SIGINT or SIGTERM after flushing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("checkpoint-interval must be positive")
			}
			if offsetFile == "" {
				offsetFile = state.DefaultPath(path)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.tail(ctx, path, state.NewFileRepository(offsetFile), interval)
		},
	}

	cmd.Flags().StringVar(&offsetFile, "offset-file", "", "where to save the read offset (default: FILE"+state.OffsetSuffix+")")
	cmd.Flags().DurationVar(&interval, "checkpoint-interval", defaultCheckpointInterval, "how often to save the read offset")
	return cmd
}

// tail follows path until ctx ends, checkpointing the read offset to repo.
func (a *app) tail(ctx context.Context, path string, repo state.Repository, interval time.Duration) error {
	st, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load offset: %w", err)
	}
	if st.Path != path {
		st.Reset(path)
	}

	client, err := a.newClient()
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	follower := source.NewFollower(path, st.Offset, log.NewZerologAdapterWithLogger(a.logger))
	var offset, lines atomic.Int64
	offset.Store(st.Offset)

	done := make(chan error, 1)
	go func() {
		done <- follower.Run(ctx, func(line []byte, next int64) error {
			client.Send(line)
			offset.Store(next)
			lines.Add(1)
			return nil
		})
	}()

	a.logger.Info().Str("path", path).Int64("offset", st.Offset).Msg("following")

	checkpoint := func() {
		st.Advance(offset.Load(), lines.Swap(0))
		if err := repo.Save(context.Background(), st); err != nil {
			a.logger.Error().Err(err).Msg("save offset")
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case runErr = <-done:
			break loop
		case <-ticker.C:
			checkpoint()
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ClientConfig().ShutdownTimeout)
	defer cancel()
	if err := client.Flush(flushCtx); err != nil {
		a.logger.Warn().Err(err).Msg("flush before exit")
	}
	if err := client.Close(flushCtx); err != nil {
		a.logger.Warn().Err(err).Msg("close")
	}
	checkpoint()

	a.logger.Info().
		Int64("offset", st.Offset).
		Int64("failures", a.failures.Load()).
		Msg("stopped")
	return runErr
}
