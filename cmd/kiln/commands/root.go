// Package commands implements the CLI commands for kiln.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	logs    LogFormatter
	rootCmd *cobra.Command
	// dispatched is set once a command handed control to the app.
	dispatched bool
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, req *domain.BuildRequest, opts app.RunOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// LogFormatter switches the logger between pretty and JSON output.
type LogFormatter interface {
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Build packages from recipes, dependencies first",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentFlags().String("log-format", "pretty", "Log format: pretty or json")
	rootCmd.PersistentPreRunE = c.applyLogFormat

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// WithLogFormatter lets --log-format reach the logger.
func (c *CLI) WithLogFormatter(f LogFormatter) *CLI {
	c.logs = f
	return c
}

func (c *CLI) applyLogFormat(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("log-format")

	var enable bool
	switch format {
	case "pretty":
	case "json":
		enable = true
	default:
		return zerr.With(zerr.New("invalid log format"), "format", format)
	}

	if c.logs != nil {
		c.logs.SetJSON(enable)
	}
	return nil
}

// Execute runs the root command with the given context. Errors raised
// before a command reached the app are reported as domain.ErrInvalidUsage.
func (c *CLI) Execute(ctx context.Context) error {
	c.dispatched = false
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if err != nil && !c.dispatched {
		return fmt.Errorf("%w: %w", domain.ErrInvalidUsage, err)
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error writers for the root command.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
