package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ankittk/tasktalk/internal/config"
	"github.com/ankittk/tasktalk/internal/heuristics"
	"github.com/ankittk/tasktalk/internal/store"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify configuration, heuristics and the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			out := cmd.OutOrStdout()
			var problems []string

			if err := os.MkdirAll(home, 0o755); err != nil {
				problems = append(problems, fmt.Sprintf("home %s is not writable: %v", home, err))
			}
			settings, err := config.Load(home, nil)
			if err != nil {
				problems = append(problems, "config: "+err.Error())
			} else {
				if settings.LLM.APIKey == "" {
					problems = append(problems, fmt.Sprintf("no API key for %s (set TASKTALK_LLM_API_KEY)", settings.LLM.Provider))
				}
				if _, err := heuristics.Load(settings.HeuristicsFile); err != nil {
					problems = append(problems, "heuristics: "+err.Error())
				}
				if settings.DB.Driver == "sqlite" {
					if st, err := store.Open(home); err != nil {
						problems = append(problems, "database: "+err.Error())
					} else {
						_ = st.Close()
						_, _ = fmt.Fprintln(out, "database:", config.DBPath(home))
					}
				}
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "ok")
			return nil
		},
	}
	return cmd
}
