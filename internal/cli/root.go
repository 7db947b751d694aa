package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Nikola31267/food-management/internal/config"
	"github.com/Nikola31267/food-management/pkg/logger"
)

var Version = "0.1.0"

// offlineAnnotation marks commands that do not need MongoDB settings.
const offlineAnnotation = "mongo-export/offline"

type options struct {
	configFile string
	outputDir  string
	database   string
	stream     bool
	logLevel   string
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	opts options
	cfg  *config.Config
	out  io.Writer
}

// NewRootCmd builds the command tree. Running it without a subcommand
// performs the full export.
func NewRootCmd() *cobra.Command {
	a := &app{out: os.Stdout}

	root := &cobra.Command{
		Use:   "mongo-export",
		Short: "Export MongoDB collections to timestamped JSON files",
		Long: `
Export the food management collections from MongoDB into pretty-printed
JSON files. The connection string is read from MONGODB_URI (environment,
.env file or --config file).

Examples:
  mongo-export
  mongo-export unpaids
  mongo-export collection users --kind users_backup
  mongo-export history foodmanagement --limit 5`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFull(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.configFile, "config", "", "config file (yaml, json, toml or env)")
	pf.StringVarP(&a.opts.outputDir, "output-dir", "o", "", "directory for export files (default ./mongo_exports)")
	pf.StringVarP(&a.opts.database, "database", "d", "", "database name (default test)")
	pf.BoolVar(&a.opts.stream, "stream", false, "write documents while reading instead of buffering the whole run")
	pf.StringVar(&a.opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newFullCmd(a), newUnpaidsCmd(a), newCollectionCmd(a), newHistoryCmd(a))
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// PrintError reports a failed invocation on stderr.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
}

// load reads the configuration and applies flags given on the command line.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Read(a.opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Export.OutputDir = a.opts.outputDir
	}
	if flags.Changed("database") {
		cfg.MongoDB.Database = a.opts.database
	}
	if flags.Changed("stream") {
		cfg.Export.Stream = a.opts.stream
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.opts.logLevel
	}
	validate := cfg.Validate
	if cmd.Annotations[offlineAnnotation] == "true" {
		validate = cfg.ValidateWithoutMongo
	}
	if err := validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger.Init(cfg.LogLevel)
	a.cfg = cfg
	return nil
}
