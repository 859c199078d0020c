package cli

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ankittk/tasktalk/internal/config"
	"github.com/ankittk/tasktalk/internal/heuristics"
	"github.com/ankittk/tasktalk/internal/httpapi"
	"github.com/ankittk/tasktalk/internal/llm"
	"github.com/ankittk/tasktalk/internal/otel"
)

func newServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tasktalk HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := loadEnvFile(envFile); err != nil {
					return err
				}
			}
			home := config.MustHomeFrom(cmd.Context())
			if err := os.MkdirAll(home, 0o755); err != nil {
				return err
			}
			v := config.NewViper(home)
			for key, flag := range map[string]string{
				config.KeyAddr:           "addr",
				config.KeyDBDriver:       "db-driver",
				config.KeyDBURL:          "db-url",
				config.KeyLLMProvider:    "llm-provider",
				config.KeyLLMBaseURL:     "llm-base-url",
				config.KeyLLMModel:       "llm-model",
				config.KeyLLMTimeout:     "llm-timeout",
				config.KeyHeuristicsFile: "heuristics",
				config.KeyOTel:           "otel",
			} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			settings, err := config.Load(home, v)
			if err != nil {
				return err
			}
			dev, _ := cmd.Flags().GetBool("dev")
			return serve(cmd.Context(), settings, dev)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Bool("dev", false, "Enable dev mode (CORS for a separate UI dev server)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file (KEY=VALUE per line) before starting")
	cmd.Flags().String("db-driver", "sqlite", "Store driver: sqlite or postgres")
	cmd.Flags().String("db-url", "", "DB connection string (for postgres; or set DATABASE_URL)")
	cmd.Flags().String("llm-provider", llm.ProviderOpenAI, "Hosted model provider: openai or gemini")
	cmd.Flags().String("llm-base-url", "", "Override the provider API base URL (OpenAI-compatible servers)")
	cmd.Flags().String("llm-model", "", "Model name (default depends on provider)")
	cmd.Flags().Duration("llm-timeout", llm.DefaultTimeout, "Timeout for one model call")
	cmd.Flags().String("heuristics", "", "YAML file overriding the keyword tables")
	cmd.Flags().Bool("otel", true, "Enable OpenTelemetry metrics (Prometheus exporter, HTTP/SSE/turn instrumentation)")

	return cmd
}

func serve(ctx context.Context, s config.Settings, dev bool) error {
	tables, err := heuristics.Load(s.HeuristicsFile)
	if err != nil {
		return err
	}
	srvOpts := httpapi.ServerOptions{
		Home:            s.Home,
		Addr:            s.Addr,
		Dev:             dev,
		APIKey:          s.APIKey,
		DBDriver:        s.DB.Driver,
		DBURL:           s.DB.URL,
		Tables:          tables,
		DefaultMode:     s.DefaultMode,
		SessionCapacity: s.SessionCap,
	}
	model, err := llm.New(s.LLMOptions())
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		slog.Warn("no model API key configured; chat will reply with an apology", "provider", s.LLM.Provider)
	case err != nil:
		return err
	default:
		srvOpts.Model = model
	}
	if s.OTel {
		metricsHandler, err := otel.InitMeterProvider(ctx, otel.ServiceName)
		if err != nil {
			slog.Warn("otel init failed, using plain metrics", "err", err)
		} else {
			srvOpts.MetricsHandler = metricsHandler
			srvOpts.UseOtelHTTP = true
		}
	}
	app, err := httpapi.NewApp(srvOpts)
	if err != nil {
		return err
	}
	if srvOpts.MetricsHandler != nil {
		if err := otel.InitMetricsWithTaskCount(ctx, app.Store.CountTasksByStatus); err != nil {
			slog.Warn("task count gauge", "err", err)
		}
	}

	slog.Info("server starting", "addr", s.Addr, "home", s.Home, "db", s.DB.Driver, "llm", s.LLM.Provider)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return app.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		value := strings.Trim(strings.TrimSpace(line[i+1:]), `"'`)
		if key != "" {
			_ = os.Setenv(key, value)
		}
	}
	return sc.Err()
}
