// Package cli provides the docqa command line, a driving adapter over the
// core services.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// InitOptions tells the Initializer what the running command needs.
type InitOptions struct {
	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string

	// SettingsOnly is set for commands that only read or write settings,
	// so AI providers and the index are not opened.
	SettingsOnly bool
}

// Initializer wires the services once flags are parsed. The returned
// cleanup runs after the command finishes.
type Initializer func(ctx context.Context, opts InitOptions) (cleanup func(), err error)

// IndexWatcher rebuilds the index whenever the documents folder changes.
type IndexWatcher interface {
	Start(ctx context.Context) error
}

var (
	queryService    driving.QueryService
	indexService    driving.IndexService
	timelineService driving.TimelineService
	settingsService driving.SettingsService
	indexWatcher    IndexWatcher

	initializer Initializer
	cleanup     func()
)

var (
	flagVerbose bool
	flagReindex bool
	flagConfig  string
)

// Command annotations read by initServices.
const (
	skipInit     = "docqa/skip-init"
	settingsOnly = "docqa/settings-only"
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a folder of documents",
	Long: `docqa indexes a local folder of PDF, Word, PowerPoint, Excel, Markdown and
text files, then answers questions about them with citations.

Dates, phases and status cards found on slides are also extracted into a
structured timeline that can be queried directly.

Running docqa without a subcommand loads (or builds) the index and starts a chat.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(*cobra.Command, []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagReindex, "reindex", false, "rebuild the index before running")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (.toml or .yaml)")
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if cmd.Annotations[skipInit] == "true" || initializer == nil {
		return nil
	}
	fn, err := initializer(cmd.Context(), InitOptions{
		ConfigPath:   flagConfig,
		SettingsOnly: cmd.Annotations[settingsOnly] == "true",
	})
	if err != nil {
		return err
	}
	cleanup = fn
	return nil
}

// SetInitializer sets the function that wires services before a command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetQueryService sets the query service.
func SetQueryService(s driving.QueryService) {
	queryService = s
}

// SetIndexService sets the index service.
func SetIndexService(s driving.IndexService) {
	indexService = s
}

// SetTimelineService sets the timeline service.
func SetTimelineService(s driving.TimelineService) {
	timelineService = s
}

// SetSettingsService sets the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetWatcher sets the folder watcher used by the watch command.
func SetWatcher(w IndexWatcher) {
	indexWatcher = w
}

// Execute runs the root command. Command output goes to stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// ensureIndex loads or builds the index, honouring --reindex.
func ensureIndex(cmd *cobra.Command) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	report, err := indexService.EnsureReady(cmd.Context(), flagReindex)
	if err != nil {
		return err
	}
	if !report.Loaded {
		printReport(cmd, report)
	}
	return nil
}
