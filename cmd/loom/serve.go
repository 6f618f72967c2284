package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/loomui/loom"
	"github.com/loomui/loom/internal/config"
	"github.com/loomui/loom/pkg/middleware"
	"github.com/loomui/loom/pkg/server"
	"github.com/loomui/loom/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		address    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo application server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to loom.json")
	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (overrides config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	level := slog.LevelInfo
	if cfg.Dev {
		level = slog.LevelDebug
		loom.SetDebugMode(true)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	snaps, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer snaps.Close()

	metrics := middleware.NewMetrics()

	srvCfg := server.DefaultConfig()
	srvCfg.Address = cfg.Server.Address
	srvCfg.PageTitle = cfg.Name
	srvCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	srvCfg.Logger = logger
	srvCfg.Metrics = metrics
	srvCfg.Store = snaps
	srvCfg.Middlewares = []middleware.Middleware{
		middleware.OTel(),
		middleware.Prometheus(metrics),
	}
	if ttl := cfg.Server.SessionTTL(); ttl > 0 {
		srvCfg.SessionTTL = ttl
	}

	srv := server.New(counterApp, srvCfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return store.NewMemStore(), nil
	case "bolt":
		return store.OpenBolt(cfg.Store.Path)
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Store.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		return store.NewS3Store(client, cfg.Store.Bucket, cfg.Store.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// counterApp is the demo root component: a counter, a greeting input and
// a ticking uptime display.
func counterApp(in *loom.Instance) *loom.VNode {
	count, setCount := loom.UseState(in, 0)
	name, setName := loom.UseState(in, "")
	ticks, setTicks := loom.UseState(in, 0)

	loom.UseEffect(in, func() loom.Cleanup {
		ticker := time.NewTicker(time.Second)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					// Cell writes from the ticker goroutine go through
					// Post so they land on the session's turn.
					in.Post(func() {
						setTicks.Update(func(n int) int { return n + 1 })
					})
				}
			}
		}()
		return func() {
			ticker.Stop()
			close(done)
		}
	}, []any{})

	greeting := "Hello, stranger"
	if name != "" {
		greeting = "Hello, " + name
	}

	return loom.Main(
		loom.H1(loom.Text("loom demo")),
		loom.Section(
			loom.P(loom.Textf("%s. You clicked %d times.", greeting, count)),
			loom.Button(
				loom.OnClick(func(map[string]any) {
					setCount.Update(func(n int) int { return n + 1 })
				}),
				loom.Text("Click me"),
			),
			loom.Input(
				loom.Type("text"),
				loom.Placeholder("Your name"),
				loom.Value(name),
				loom.OnInput(func(payload map[string]any) {
					if v, ok := payload["value"].(string); ok {
						setName.Set(v)
					}
				}),
			),
		),
		loom.Footer(loom.Textf("up for %ds", ticks)),
	)
}
