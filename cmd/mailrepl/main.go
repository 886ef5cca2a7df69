package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/mailrepl/internal/app"
	"github.com/nhle/mailrepl/internal/backend"
	"github.com/nhle/mailrepl/internal/credential"
	"github.com/nhle/mailrepl/internal/dispatch"
	"github.com/nhle/mailrepl/internal/editor"
	"github.com/nhle/mailrepl/internal/model"
	"github.com/nhle/mailrepl/internal/store"
	appsync "github.com/nhle/mailrepl/internal/sync"
)

// levelTrace is below slog.LevelDebug and enables source locations.
const levelTrace = slog.Level(-8)

// Options holds the command line flags.
type Options struct {
	Configs []string
	Account string
	Debug   bool
	Trace   bool
}

func main() {
	var opts Options

	rootCmd := &cobra.Command{
		Use:   "mailrepl [flags]",
		Short: "Interactive mail shell",
		Long: `mailrepl is an interactive shell for managing emails over IMAP,
SMTP and sendmail. Commands are completed with Tab and run with Enter.`,
		Example: `  # Start with the default account
  mailrepl

  # Use another account and an extra configuration file
  mailrepl -a work -c ~/.config/mailrepl/work.toml

  # Write debug logs to $TMPDIR/mailrepl.log
  mailrepl --debug`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringArrayVarP(&opts.Configs, "config", "c", nil, "Configuration file; later files override earlier ones (env MAILREPL_CONFIG)")
	flags.StringVarP(&opts.Account, "account", "a", "", "Account to use instead of the default one")
	flags.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.Trace, "trace", false, "Enable trace logging with source locations")
	rootCmd.MarkFlagsMutuallyExclusive("debug", "trace")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Options) error {
	closeLog, err := setupLogging(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := model.LoadConfig(configPaths(opts.Configs)...)
	if err != nil {
		return err
	}
	acc, err := cfg.Account(opts.Account)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.REPL.IDMapperPath)
	if err != nil {
		return fmt.Errorf("opening id mapper: %w", err)
	}
	defer st.Close()

	// The keyring file fallback sits next to the id mapper database.
	secrets := credential.NewGetter(credential.KeyringConfig(filepath.Dir(cfg.REPL.IDMapperPath)))
	build := func(ctx context.Context, acc *model.AccountConfig) (*backend.Backend, error) {
		return backend.Build(ctx, acc, secrets)
	}

	b, err := build(ctx, acc)
	if err != nil {
		return err
	}

	var poller *appsync.Poller
	if b.HasMailbox() {
		poller = appsync.New(b, model.FolderInbox, cfg.REPL.WatchInterval)
		defer poller.Stop()
	}

	m := app.New(app.Options{
		Account:        acc.Name,
		Executor:       dispatch.New(cfg, b, st.Mapper(acc.Name), build),
		Outbox:         b,
		Poller:         poller,
		Draft:          editor.NewDraft(cfg.REPL.DraftPath),
		Keybinds:       cfg.REPL.Keybinds,
		CommandTimeout: cfg.REPL.CommandTimeout,
	})

	slog.Info("session started", "account", acc.Name, "keybinds", cfg.REPL.Keybinds)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running repl: %w", err)
	}
	return nil
}

// configPaths falls back to $MAILREPL_CONFIG when no -c flag is given.
func configPaths(flags []string) []string {
	if len(flags) > 0 {
		return flags
	}
	if env := os.Getenv("MAILREPL_CONFIG"); env != "" {
		return filepath.SplitList(env)
	}
	return nil
}

// setupLogging sends slog output to a file, since the terminal belongs
// to the REPL.
func setupLogging(opts Options) (func(), error) {
	level := slog.LevelInfo
	switch {
	case opts.Trace:
		level = levelTrace
	case opts.Debug:
		level = slog.LevelDebug
	}

	path := filepath.Join(os.TempDir(), "mailrepl.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{
		Level:     level,
		AddSource: opts.Trace,
	})
	slog.SetDefault(slog.New(handler))

	return func() { _ = f.Close() }, nil
}
