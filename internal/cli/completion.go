package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shipyard/pkg/catalog"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for shipyard.

To load completions:

Bash:
  $ source <(shipyard completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ shipyard completion bash > /etc/bash_completion.d/shipyard
  # macOS:
  $ shipyard completion bash > $(brew --prefix)/etc/bash_completion.d/shipyard

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ shipyard completion zsh > "${fpath[1]}/_shipyard"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ shipyard completion fish | source

  # To load completions for each session, execute once:
  $ shipyard completion fish > ~/.config/fish/completions/shipyard.fish

PowerShell:
  PS> shipyard completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> shipyard completion powershell > shipyard.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeTypeNames completes the first argument of plan and graph with the
// names of manufactured types in the extract named by --data.
func (c *CLI) completeTypeNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || strings.TrimSpace(toComplete) == "" {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	dir, _ := cmd.Flags().GetString("data")
	e, err := c.loadExport(dir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	entries, err := catalog.New(e).Search(toComplete, 0)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	names := []string{}
	for _, entry := range entries {
		if entry.Manufactured && strings.HasPrefix(strings.ToLower(entry.Name), strings.ToLower(toComplete)) {
			names = append(names, entry.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
