// Package commands implements the CLI commands for the gany package manager.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/app"
	"go.trai.ch/gany/internal/build"
	"go.trai.ch/gany/internal/core/domain"
)

// Application represents the application logic interface.
type Application interface {
	Install(ctx context.Context, requests []string) (*domain.Transaction, error)
	Upgrade(ctx context.Context, names []string) (*domain.Transaction, error)
	Drop(ctx context.Context, names []string, cascade bool) (*domain.Transaction, error)
	Plan(ctx context.Context, intent domain.Intent) (*domain.Plan, error)
	Sync(ctx context.Context) (domain.SyncReport, error)
	AddRepository(ctx context.Context, desc domain.RepositoryDescriptor) (domain.Repository, error)
	AddRepositoryWithURL(ctx context.Context, address string) (domain.Repository, error)
	RemoveRepository(ctx context.Context, name string) error
	ListRepositories(ctx context.Context) ([]domain.Repository, error)
	Push(ctx context.Context, repo string, sources []string) ([]domain.Package, error)
	CreatePackage(ctx context.Context, src, outDir string) (*domain.Package, error)
	List() ([]domain.InstalledPackage, error)
	Info(ctx context.Context, name string) (*app.PackageInfo, error)
	Verify(names []string) ([]domain.FileIssue, error)
	History() (*domain.Transaction, error)
}

// LogSettings is implemented by loggers whose output can be switched from the command line.
type LogSettings interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// CLI represents the command line interface for gany.
type CLI struct {
	app     Application
	logs    LogSettings
	rootCmd *cobra.Command
}

// Option configures a CLI.
type Option func(*CLI)

// WithLogSettings lets --json-logs and --verbose reconfigure logs.
func WithLogSettings(logs LogSettings) Option {
	return func(c *CLI) {
		c.logs = logs
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "gany",
		Short:         "A transactional package manager",
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

	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show debug logs")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.logs == nil {
			return
		}
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		verbose, _ := cmd.Flags().GetBool("verbose")
		c.logs.SetJSON(jsonLogs)
		c.logs.SetVerbose(verbose)
	}

	rootCmd.AddCommand(c.newAddCmd())
	rootCmd.AddCommand(c.newDropCmd())
	rootCmd.AddCommand(c.newUpgradeCmd())
	rootCmd.AddCommand(c.newSyncCmd())
	rootCmd.AddCommand(c.newRepoCmd())
	rootCmd.AddCommand(c.newCreateCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newInfoCmd())
	rootCmd.AddCommand(c.newVerifyCmd())
	rootCmd.AddCommand(c.newHistoryCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
