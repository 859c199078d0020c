package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankittk/tasktalk/internal/config"
)

const apiKeyBytes = 32

func newApikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the key that protects the HTTP API",
	}
	cmd.AddCommand(newApikeyGenerateCmd(), newApikeyStatusCmd())
	return cmd
}

func newApikeyGenerateCmd() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create a random API key and store it as api_key in the home config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := randomKey()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, key)
			if printOnly {
				return nil
			}
			path, err := config.SaveAPIKey(config.MustHomeFrom(cmd.Context()), key)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "saved api_key to %s; restart tasktalk serve to enforce it\n", path)
			_, _ = fmt.Fprintln(out, "clients pass it with --api-key, TASKTALK_API_KEY or the X-API-Key header")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print-only", false, "Print the key without saving it")
	return cmd
}

func newApikeyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the server will require an API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(config.MustHomeFrom(cmd.Context()), nil)
			if err != nil {
				return err
			}
			if s.APIKey == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "api_key not set; the API is open")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "api_key set (%s)\n", maskKey(s.APIKey))
			return nil
		},
	}
}

func randomKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// maskKey keeps the last four characters.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
