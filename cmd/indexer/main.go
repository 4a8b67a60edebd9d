package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goran-ethernal/ModerationIndexor/internal/api"
	"github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/config"
	"github.com/goran-ethernal/ModerationIndexor/internal/db"
	"github.com/goran-ethernal/ModerationIndexor/internal/decoder"
	"github.com/goran-ethernal/ModerationIndexor/internal/fetcher"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/metrics"
	"github.com/goran-ethernal/ModerationIndexor/internal/migrations"
	"github.com/goran-ethernal/ModerationIndexor/internal/notifier"
	"github.com/goran-ethernal/ModerationIndexor/internal/reconciler"
	"github.com/goran-ethernal/ModerationIndexor/internal/rewards"
	"github.com/goran-ethernal/ModerationIndexor/internal/rpc"
	"github.com/goran-ethernal/ModerationIndexor/internal/store"
	"github.com/goran-ethernal/ModerationIndexor/internal/supervisor"
	pkgconfig "github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║       ModerationIndexor v%s            ║
║   Content Moderation Event Indexer        ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath string
	pageLimit  int
	pageOffset int
	replay     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "ModerationIndexor - content moderation event indexer",
	Long: `ModerationIndexor follows the content registry, moderation game and staking
contracts and keeps a queryable projection of content status, challenges,
disputes and stakes in SQLite.`,
	Version: version,
	RunE:    runIndexer,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		schema, err := config.GenerateSchema()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
		return err
	},
}

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "List recorded anomalies, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(func(_ *pkgconfig.Config, st *store.Store, _ *logger.Logger) error {
			rows, total, err := st.ListAnomalies(pageLimit, pageOffset)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"total": total, "anomalies": rows})
		})
	},
}

var deadLettersCmd = &cobra.Command{
	Use:   "dead-letters",
	Short: "List dead-lettered logs, or replay them with --replay",
	Long: `List dead-lettered logs oldest block first. With --replay every listed log is
applied again without the order guard; rows of logs that are applied, already
applied or recorded as anomalies are removed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(func(cfg *pkgconfig.Config, st *store.Store, log *logger.Logger) error {
			if !replay {
				rows, total, err := st.ListDeadLetters(pageLimit, pageOffset)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"total": total, "dead_letters": rows})
			}

			dec, err := decoder.New(decoder.NewAddressBook(cfg.Contracts))
			if err != nil {
				return err
			}

			rec := reconciler.New(cfg.Reconciler, st, dec, nil, log)
			report, err := rec.ReplayDeadLetters(cmd.Context(), pageLimit)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print per-contract cursors and failure counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(func(_ *pkgconfig.Config, st *store.Store, _ *logger.Logger) error {
			cursors, err := st.ListCursors()
			if err != nil {
				return err
			}
			anomalies, err := st.CountAnomalies()
			if err != nil {
				return err
			}
			deadLetters, err := st.CountDeadLetters()
			if err != nil {
				return err
			}
			epoch, err := st.LatestEpoch()
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{
				"cursors":      cursors,
				"anomalies":    anomalies,
				"dead_letters": deadLetters,
				"latest_epoch": epoch,
			})
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	for _, cmd := range []*cobra.Command{anomaliesCmd, deadLettersCmd} {
		cmd.Flags().IntVar(&pageLimit, "limit", 50, "maximum number of rows")
		cmd.Flags().IntVar(&pageOffset, "offset", 0, "number of rows to skip")
	}
	deadLettersCmd.Flags().BoolVar(&replay, "replay", false, "re-apply the listed dead letters")

	rootCmd.AddCommand(schemaCmd, anomaliesCmd, deadLettersCmd, statusCmd)
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	fmt.Printf(banner, version)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := componentLogger(cfg, common.ComponentSupervisor)
	defer log.Close() //nolint:errcheck

	database, err := db.NewSQLiteDBFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	log.Info("running database migrations...")
	if err := migrations.RunMigrations(componentLogger(cfg, common.ComponentStore), database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	maintenance := db.NewMaintenanceCoordinator(
		cfg.Database.Path,
		database,
		cfg.Maintenance,
		componentLogger(cfg, common.ComponentMaintenance),
	)
	if err := maintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start maintenance: %w", err)
	}
	defer func() {
		if err := maintenance.Stop(); err != nil {
			log.Warnf("failed to stop maintenance: %v", err)
		}
	}()

	st := store.New(database, componentLogger(cfg, common.ComponentStore), maintenance)

	dec, err := decoder.New(decoder.NewAddressBook(cfg.Contracts))
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	log.Infof("connecting to %s", cfg.Chain.RPCURL)
	ethClient, err := rpc.NewClient(ctx, cfg.Chain.RPCURL, cfg.Chain.PushURL(), cfg.Chain.Retry)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer ethClient.Close()

	if cfg.Chain.ChainID != 0 {
		chainID, err := ethClient.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("failed to read chain id: %w", err)
		}
		if chainID.Uint64() != cfg.Chain.ChainID {
			return fmt.Errorf("connected to chain %s, expected %d", chainID, cfg.Chain.ChainID)
		}
	}

	metrics.BuildInfoSet(version, cfg.Chain.ChainID)

	source := fetcher.NewLogSource(ethClient, cfg.Chain.ChunkSize, componentLogger(cfg, common.ComponentLogSource))

	var notify reconciler.Notifier
	if cfg.Notifier != nil && cfg.Notifier.Enabled {
		n, err := notifier.New(ctx, *cfg.Notifier, componentLogger(cfg, common.ComponentNotifier))
		if err != nil {
			return fmt.Errorf("failed to create notifier: %w", err)
		}
		defer n.Close()
		notify = n
	}

	rec := reconciler.New(cfg.Reconciler, st, dec, notify, componentLogger(cfg, common.ComponentReconciler))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rec.Run(gctx) })

	streams := cfg.Contracts.Streams()
	reporters := make([]api.StateReporter, 0, len(streams))
	for _, stream := range streams {
		s := supervisor.New(cfg.Supervisor, stream, source, rec, st, componentLogger(cfg, common.ComponentSupervisor))
		reporters = append(reporters, s)
		g.Go(func() error { return s.Run(gctx) })
	}
	metrics.ComponentHealthSet(common.ComponentSupervisor, true)
	metrics.ComponentHealthSet(common.ComponentReconciler, true)

	if cfg.Rewards != nil && cfg.Rewards.Enabled {
		watcher, err := rewards.New(*cfg.Rewards, st, source, componentLogger(cfg, common.ComponentRewards))
		if err != nil {
			return fmt.Errorf("failed to create rewards watcher: %w", err)
		}
		g.Go(func() error { return watcher.Run(gctx) })
		metrics.ComponentHealthSet(common.ComponentRewards, true)
	}

	if cfg.API != nil && cfg.API.Enabled {
		server := api.NewServer(cfg.API, st, reporters, componentLogger(cfg, common.ComponentAPI))
		g.Go(func() error { return server.Start(gctx) })
		metrics.ComponentHealthSet(common.ComponentAPI, true)
	}

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics, log)
		g.Go(func() error { return server.Run(gctx) })
	}

	log.Infof("indexing %d contract(s) in %d stream(s)", len(cfg.Contracts.Configured()), len(streams))

	if err := g.Wait(); err != nil {
		metrics.ComponentHealthSet(common.ComponentReconciler, false)
		return fmt.Errorf("indexer failed: %w", err)
	}

	log.Info("ModerationIndexor stopped")
	return nil
}

// withStore loads the configuration, opens the migrated database and runs fn.
func withStore(fn func(cfg *pkgconfig.Config, st *store.Store, log *logger.Logger) error) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	log := componentLogger(cfg, common.ComponentStore)
	if err := migrations.RunMigrations(log, database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return fn(cfg, store.New(database, log, nil), componentLogger(cfg, common.ComponentReconciler))
}

func componentLogger(cfg *pkgconfig.Config, component string) *logger.Logger {
	if cfg.Logging == nil {
		return logger.NewComponentLoggerFromConfig(component, nil)
	}
	return logger.NewComponentLoggerFromConfig(component, cfg.Logging)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
