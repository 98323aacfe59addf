// Package cli implements the porto-guide command-line interface.
//
// # Commands
//
//   - serve: MCP server on stdio
//   - http: HTTP API
//   - scan: full pipeline on one photo
//   - reconstruct: reading-order text from a fragments JSON file
//   - landmarks: list or rank the landmark dataset
//   - version: build information
//
// # Logging
//
// Logs go to stderr through charmbracelet/log. The level comes from
// --verbose, then the log_level setting (or PORTO_GUIDE_LOG_LEVEL).
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/porto-guide/internal/config"
	"github.com/ironsheep/porto-guide/internal/logging"
)

const appName = "porto-guide"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersion sets the build information shown by "version" and --version.
// It is called from main with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out        io.Writer
	in         io.Reader
	verbose    bool
	configPath string
	cfg        config.Config
}

// New creates a CLI writing results to out and logs to logw.
func New(out, logw io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: logging.New(logw, level),
		out:    out,
		in:     os.Stdin,
		cfg:    config.Default(),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Read Porto street signs, translate them and find nearby sights",
		Long: `porto-guide recognizes the text on a photographed sign, restores its reading
order, translates it and, when it is a street address, recommends the nearest
Porto landmarks. It runs as a one-shot CLI, an MCP server or an HTTP API.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(versionText())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML config file (default $"+config.EnvPrefix+"CONFIG)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.httpCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.reconstructCommand())
	root.AddCommand(c.landmarksCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	path := c.configPath
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := logging.ParseLevel(cfg.LogLevel)
	if c.verbose {
		level = log.DebugLevel
	}
	c.Logger.SetLevel(level)
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, c.Logger))
	return nil
}

func versionText() string {
	return fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date)
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(c.out, versionText())
			return err
		},
	}
}
