package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chenzhuyu2004/greensplit/internal/config"
	gserrors "github.com/chenzhuyu2004/greensplit/internal/errors"
	"github.com/chenzhuyu2004/greensplit/internal/logging"
	"github.com/chenzhuyu2004/greensplit/internal/output"
)

// cli holds the global flags and the state PersistentPreRunE resolves from them.
type cli struct {
	configPath string
	envFile    string
	output     string
	logLevel   string
	logFormat  string

	settings config.Settings
	logger   *slog.Logger
	resolved bool

	stderr io.Writer
}

// Execute builds the command tree, runs it against os.Args and exits with the mapped code.
func Execute() {
	c := &cli{stderr: os.Stderr}
	root := newRootCommand(c)
	err := root.Execute()

	asJSON := detectJSONOutput(os.Args[1:])
	if c.resolved {
		asJSON = c.settings.Output == "json"
	}
	output.HandleExit(err, asJSON)
}

func newRootCommand(c *cli) *cobra.Command {
	if c.stderr == nil {
		c.stderr = os.Stderr
	}

	root := &cobra.Command{
		Use:   "greensplit",
		Short: "Two-phase traffic signal green split optimiser",
		Long: `greensplit allocates green time between the North-South and East-West phases
of a fixed-cycle intersection. It minimises a flow-weighted Webster delay proxy
under per-phase bounds and compares the result against an equal split.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "path to JSON config file (default: "+config.EnvConfigPath+")")
	pf.StringVar(&c.envFile, "env-file", "", "path to a .env file (default: ./.env when present)")
	pf.StringVar(&c.output, "output", config.DefaultOutput, "output format: text|json")
	pf.StringVar(&c.logLevel, "log-level", config.DefaultLogLevel, "log level: debug|info|warn|error")
	pf.StringVar(&c.logFormat, "log-format", config.DefaultLogFormat, "log format: text|json")

	root.AddCommand(
		newEvaluateCommand(c),
		newDelayCommand(c),
		newBoundsCommand(c),
		newAllocateCommand(c),
		newServeCommand(c),
		newVersionCommand(),
	)
	return root
}

// setup resolves settings with precedence flags > env > config file > defaults and
// installs the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := config.LoadEnvFile(c.envFile); err != nil {
		return gserrors.New(err, gserrors.InputError)
	}
	settings, err := config.Resolve(c.configPath)
	if err != nil {
		return gserrors.New(err, gserrors.InputError)
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		settings.Output = c.output
	}
	if flags.Changed("log-level") {
		settings.LogLevel = c.logLevel
	}
	if flags.Changed("log-format") {
		settings.LogFormat = c.logFormat
	}
	if err := settings.Validate(); err != nil {
		return gserrors.New(err, gserrors.InputError)
	}

	logger, err := logging.New(c.stderr, logging.Options{Level: settings.LogLevel, Format: settings.LogFormat})
	if err != nil {
		return gserrors.New(err, gserrors.InputError)
	}

	c.settings = settings
	c.logger = logger
	c.resolved = true
	return nil
}

func (c *cli) asJSON() bool {
	return c.settings.Output == "json"
}

// detectJSONOutput looks for --output json in raw arguments, then in the environment.
// Used when settings could not be resolved.
func detectJSONOutput(args []string) bool {
	for i, arg := range args {
		if arg == "--output=json" || arg == "-output=json" {
			return true
		}
		if (arg == "--output" || arg == "-output") && i+1 < len(args) && args[i+1] == "json" {
			return true
		}
	}
	return strings.TrimSpace(os.Getenv(config.EnvOutput)) == "json"
}
