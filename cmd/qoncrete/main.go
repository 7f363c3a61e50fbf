package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/qoncrete/qoncrete-go"
	"github.com/qoncrete/qoncrete-go/internal/cliconfig"
	"github.com/qoncrete/qoncrete-go/pkg/log"
)

const helpDescription = `
Ship JSON log records to Qoncrete.

Records are read one per line, batched, and sent with bounded concurrency.
Requests that time out are retried; every final failure is logged.

Configure via file ($HOME/.qoncrete/config.toml), QONCRETE_* environment
variables, or flags (in increasing order of precedence).
`

var exampleUsage = strings.TrimSpace(`
  qoncrete send --source-id <uuid> --api-token <uuid> events.jsonl
  zcat events.jsonl.gz | qoncrete send
  qoncrete tail /var/log/app/events.jsonl
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg      cliconfig.Config
	cfgPath  string
	stderr   io.Writer
	logger   zerolog.Logger
	failures atomic.Int64
}

func newApp(stderr io.Writer) *app {
	return &app{
		cfg:    cliconfig.DefaultConfig(),
		stderr: stderr,
		logger: cliconfig.NewLogger(stderr, "info"),
	}
}

// newClient creates a client logging through the CLI logger and counting
// every reported failure.
func (a *app) newClient() (*qoncrete.Client, error) {
	return qoncrete.New(a.cfg.ClientConfig(),
		qoncrete.WithLogger(log.NewZerologAdapterWithLogger(a.logger)),
		qoncrete.WithErrorLogger(func(err error) {
			a.failures.Add(1)
			// The client logs everything but rejected input itself.
			if errors.Is(err, qoncrete.ErrInvalidBody) {
				a.logger.Warn().Err(err).Msg("record rejected")
			}
		}),
	)
}

func main() {
	a := newApp(os.Stderr)
	if err := newRootCommand(a).Execute(); err != nil {
		a.logger.Error().Err(err).Msg("qoncrete")
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "qoncrete",
		Short:         "Ship JSON log records to Qoncrete",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := a.cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
					return err
				}
			}

			// QONCRETE_* override the file but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
				return err
			}

			if err := a.cfg.Validate(); err != nil {
				return err
			}

			a.logger = cliconfig.NewLogger(a.stderr, a.cfg.LogLevel)
			a.logger.Debug().Interface("config", a.cfg.Masked()).Msg("configuration")
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.qoncrete/config.toml)")
	flags.StringVar(&a.cfg.SourceID, "source-id", a.cfg.SourceID, "log source ID (UUID)")
	flags.StringVar(&a.cfg.APIToken, "api-token", a.cfg.APIToken, "API token of the log source (UUID)")
	flags.BoolVar(&a.cfg.SecureTransport, "secure", a.cfg.SecureTransport, "use https")
	flags.BoolVar(&a.cfg.CacheDNS, "cache-dns", a.cfg.CacheDNS, "cache DNS lookups of the ingestion host")
	flags.DurationVar(&a.cfg.TimeoutAfter, "timeout", a.cfg.TimeoutAfter, "timeout of each request")
	flags.IntVar(&a.cfg.RetryOnTimeout, "retry-on-timeout", a.cfg.RetryOnTimeout, "retries of a batch after a timeout")
	flags.BoolVar(&a.cfg.AutoBatch, "auto-batch", a.cfg.AutoBatch, "group records into batches")
	flags.IntVar(&a.cfg.BatchSize, "batch-size", a.cfg.BatchSize, fmt.Sprintf("records per batch (1-%d)", qoncrete.MaxBatchSize))
	flags.DurationVar(&a.cfg.AutoSendAfter, "auto-send-after", a.cfg.AutoSendAfter, "send a partial batch after this long")
	flags.IntVar(&a.cfg.Concurrency, "concurrency", a.cfg.Concurrency, "maximum parallel requests")
	flags.IntVar(&a.cfg.MaxPending, "max-pending", a.cfg.MaxPending, "maximum records waiting to be batched (0 = unbounded)")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")

	flags.StringVar(&a.cfg.ServiceURL, "service-url", a.cfg.ServiceURL, "ingestion base URL (override only for testing)")
	if err := flags.MarkHidden("service-url"); err != nil {
		a.logger.Info().Err(err).Msg("failed to hide service-url flag")
	}

	root.AddCommand(newSendCommand(a), newTailCommand(a))
	return root
}
