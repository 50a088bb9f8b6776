package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/discord"
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/engine"
	"github.com/soyeahso/discordbridge/internal/hooks"
	"github.com/soyeahso/discordbridge/internal/host"
	"github.com/soyeahso/discordbridge/internal/logging"
	"github.com/soyeahso/discordbridge/internal/metrics"
	"github.com/soyeahso/discordbridge/internal/monitor"
	"github.com/soyeahso/discordbridge/internal/nodes"
	"github.com/soyeahso/discordbridge/internal/plugin"
	"github.com/soyeahso/discordbridge/internal/store"
)

func newRunCmd() *cobra.Command {
	var (
		tick        time.Duration
		monitorAddr string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the host and run the configured flows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if tick != 0 {
				cfg.Host.TickInterval = tick
			}
			if monitorAddr != "" {
				cfg.Monitor.Enabled = true
				cfg.Monitor.Addr = monitorAddr
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating directories: %w", err)
			}

			runLog, logCloser, err := logging.Open(logging.Options{
				Level: cfg.Logging.Level,
				Style: cfg.Logging.ConsoleStyle,
				File:  paths.Resolve(cfg.Logging.File),
			})
			if err != nil {
				return err
			}
			defer logCloser.Close()

			if !force {
				lock := flock.New(paths.Lock)
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquiring run lock: %w", err)
				}
				if !locked {
					return fmt.Errorf("another instance holds %s (use --force to skip this check)", paths.Lock)
				}
				defer lock.Unlock() //nolint:errcheck
			}

			db, err := store.Open(storePath(cfg), runLog)
			if err != nil {
				return fmt.Errorf("opening settings store: %w", err)
			}
			defer db.Close()

			appEnv, err := host.NewFileEnv(paths.Resolve(cfg.Host.EnvFile))
			if err != nil {
				return fmt.Errorf("loading env file: %w", err)
			}
			if appEnv.Len() > 0 {
				runLog.Info().Str("path", appEnv.Path()).Int("vars", appEnv.Len()).Msg("app environment loaded")
			}

			m := metrics.New()
			hookMgr := hooks.NewManager(runLog)

			var (
				bot *nodes.Plugin
				rt  *engine.Runtime
				mon *monitor.Server
			)
			if cfg.Monitor.Enabled {
				mon = monitor.New(cfg.Monitor, runLog, m, func() monitor.Status {
					return bridgeStatus(bot, rt)
				})
				hookMgr.OnAll("monitor", mon.PublishHook)
			}

			opts := nodes.Options{Dial: discord.Dialer(runLog), Metrics: m}
			if mon != nil {
				opts.Observer = func(ev domain.Event) { mon.Publish(ev) }
			}
			bot = nodes.New(opts)

			plugins := plugin.NewRegistry(hookMgr, runLog)
			if err := plugins.Register(bot); err != nil {
				return err
			}

			rt = engine.New(engine.Options{
				Config:   cfg,
				Log:      runLog,
				Plugins:  plugins,
				Hooks:    hookMgr,
				Metrics:  m,
				Settings: store.NewSettingsStore(db),
				AppEnv:   appEnv,
			})

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := rt.Start(ctx); err != nil {
				return fmt.Errorf("starting runtime: %w", err)
			}

			if mon != nil {
				go func() {
					if err := mon.Start(ctx); err != nil {
						runLog.Error().Err(err).Msg("monitor failed")
						stop()
					}
				}()
			}
			go reloadOnHangup(ctx, rt, appEnv, runLog)

			runLog.Info().Msg("discordbridge running, press Ctrl+C to stop")
			return rt.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&tick, "tick", 0, "override host.tickInterval")
	cmd.Flags().StringVar(&monitorAddr, "monitor", "", "enable the monitor on this address")
	cmd.Flags().BoolVar(&force, "force", false, "start even if another instance holds the run lock")

	return cmd
}

// reloadOnHangup re-reads stored settings and the env file on SIGHUP.
func reloadOnHangup(ctx context.Context, rt *engine.Runtime, env *host.FileEnv, log *logging.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := env.Reload(); err != nil {
				log.Warn().Err(err).Msg("env file reload failed")
			}
			if err := rt.ReloadSettings(ctx); err != nil {
				log.Warn().Err(err).Msg("settings reload failed")
				continue
			}
			log.Info().Msg("reloaded on SIGHUP")
		}
	}
}

// bridgeStatus reports the connection side of the monitor health body.
func bridgeStatus(bot *nodes.Plugin, rt *engine.Runtime) monitor.Status {
	st := monitor.Status{Connection: "unloaded"}
	if rt != nil {
		st.Flows = rt.Flows()
	}
	if bot == nil {
		return st
	}
	m := bot.Manager()
	if m == nil {
		return st
	}
	st.Connection = m.State().String()
	st.Ready = m.IsReady()
	st.Pending = m.Pending()
	st.Listeners = make(map[string]int, len(domain.AllEventKinds))
	for _, k := range domain.AllEventKinds {
		st.Listeners[k.String()] = m.ListenerCount(k)
	}
	return st
}
