package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `To load completions:

Bash:

  $ source <(segysak completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ segysak completion bash > /etc/bash_completion.d/segysak
  # macOS:
  $ segysak completion bash > /usr/local/etc/bash_completion.d/segysak

Zsh:

  # Enable shell completion once if it is not already on:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ segysak completion zsh > "${fpath[1]}/_segysak"

Fish:

  $ segysak completion fish | source

  # To load completions for each session, execute once:
  $ segysak completion fish > ~/.config/fish/completions/segysak.fish

PowerShell:

  PS> segysak completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return WrapCLIError(ExitUsage, "completion needs a shell name", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			default:
				return NewCLIError(ExitUsage, fmt.Sprintf("unsupported shell: %s", args[0]))
			}
		},
	}
}
