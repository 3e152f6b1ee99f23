package commands

import (
	"strconv"

	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/ui/style"
)

func (c *CLI) newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage package repositories",
	}
	cmd.AddCommand(c.newRepoAddCmd())
	cmd.AddCommand(c.newRepoAddURLCmd())
	cmd.AddCommand(c.newRepoRemoveCmd())
	cmd.AddCommand(c.newRepoListCmd())
	cmd.AddCommand(c.newRepoPushCmd())
	return cmd
}

func (c *CLI) newRepoAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> <address>",
		Short: "Register a repository under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, _ := cmd.Flags().GetString("arch")
			repo, err := c.app.AddRepository(cmd.Context(), domain.RepositoryDescriptor{
				Name:    args[0],
				Address: args[1],
				Arch:    arch,
			})
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			p.println(p.render(style.Success, style.Check+" added "+repo.Name))
			return nil
		},
	}
	cmd.Flags().String("arch", "", "Only use packages built for this architecture")
	return cmd
}

func (c *CLI) newRepoAddURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-url <address>",
		Short: "Register a repository named after its address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.app.AddRepositoryWithURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			p.println(p.render(style.Success, style.Check+" added "+repo.Name))
			return nil
		},
	}
}

func (c *CLI) newRepoRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Forget a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.RemoveRepository(cmd.Context(), args[0]); err != nil {
				return err
			}
			p := newPrinter(cmd)
			p.println(p.render(style.Success, style.Check+" removed "+args[0]))
			return nil
		},
	}
}

func (c *CLI) newRepoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos, err := c.app.ListRepositories(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(repos))
			for i := range repos {
				synced := "never"
				if !repos[i].SyncedAt.IsZero() {
					synced = repos[i].SyncedAt.UTC().Format(timeLayout)
				}
				rows = append(rows, []string{repos[i].Name, repos[i].Address, strconv.Itoa(repos[i].Len()), synced})
			}
			newPrinter(cmd).table([]string{"NAME", "ADDRESS", "PACKAGES", "SYNCED"}, rows)
			return nil
		},
	}
}

func (c *CLI) newRepoPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <name> <path>...",
		Short: "Publish packages to a repository",
		Long: "Publish packages to a repository. A path is a package source tree, " +
			"a package info file, or a directory of built packages.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pushed, err := c.app.Push(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			for i := range pushed {
				p.println(p.render(style.Success, style.Check+" "+pushed[i].ID()))
			}
			return nil
		},
	}
}
