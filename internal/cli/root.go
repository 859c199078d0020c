// Package cli holds the tasktalk cobra commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ankittk/tasktalk/internal/config"
	"github.com/ankittk/tasktalk/pkg/client"
)

// clientFlags are the connection settings shared by commands that talk to a running server.
type clientFlags struct {
	server string
	apiKey string
}

func (f *clientFlags) client() *client.Client {
	server := f.server
	if server == "" {
		server = os.Getenv("TASKTALK_SERVER")
	}
	key := f.apiKey
	if key == "" {
		key = os.Getenv("TASKTALK_API_KEY")
	}
	return client.New(server, key)
}

func NewRootCmd(version string) *cobra.Command {
	var homeOverride string
	cf := &clientFlags{}

	cmd := &cobra.Command{
		Use:          "tasktalk",
		Short:        "tasktalk: manage a to-do list by chatting with it",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.ResolveHome(homeOverride)
			if err != nil {
				return err
			}
			cmd.SetContext(config.WithHome(cmd.Context(), home))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&homeOverride, "home", "", "Override tasktalk home directory (default: ~/.tasktalk, env: TASKTALK_HOME)")
	cmd.PersistentFlags().StringVar(&cf.server, "server", "", "Server URL for client commands (default: "+client.DefaultBaseURL+", env: TASKTALK_SERVER)")
	cmd.PersistentFlags().StringVar(&cf.apiKey, "api-key", "", "API key for client commands (env: TASKTALK_API_KEY)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newApikeyCmd())

	cmd.AddCommand(newChatCmd(cf))
	cmd.AddCommand(newTaskCmd(cf))
	cmd.AddCommand(newModeCmd(cf))
	cmd.AddCommand(newUserCmd(cf))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
