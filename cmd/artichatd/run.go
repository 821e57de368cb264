package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/dispatch"
	"github.com/arti-chat/core/internal/health"
	"github.com/arti-chat/core/internal/identity"
	"github.com/arti-chat/core/internal/ipc"
	"github.com/arti-chat/core/internal/logger"
	"github.com/arti-chat/core/internal/metrics"
	"github.com/arti-chat/core/internal/overlay/loopback"
	"github.com/arti-chat/core/internal/retry"
	"github.com/arti-chat/core/internal/rpc"
	"github.com/arti-chat/core/internal/sender"
	"github.com/arti-chat/core/internal/store"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the background messaging core",
	Long: `Run bootstraps the overlay client, opens the local store, loads or
generates the local identity, and launches the four concurrent
activities described in the core's control flow: the peer dispatcher,
the local IPC server, the retry loop, and the focus-state tracker.

It blocks until interrupted (SIGINT/SIGTERM).`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default: config/<env>.yaml)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLoggerFromConfig(cfg)
	log.Info("starting artichatd", logger.String("environment", cfg.Environment))

	if err := os.MkdirAll(cfg.Identity.DataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.Identity.DataDir, dbPath)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The overlay client bootstrap and hidden-service publication are
	// fatal on failure (spec §7). Production wiring swaps this
	// loopback stand-in for a real Tor/Arti client behind the same
	// overlay.Client interface; see SPEC_FULL.md §2.1.
	client, err := loopback.New(cfg.Tor.VirtualPort)
	if err != nil {
		return fmt.Errorf("failed to bootstrap overlay client: %w", err)
	}
	defer client.Close()

	onionID, err := client.LocalAddress()
	if err != nil {
		return fmt.Errorf("failed to read published hidden service address: %w", err)
	}
	log.Info("published hidden service", logger.String("onion_id", onionID))

	self, err := bootstrapIdentity(db, onionID)
	if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}
	log.Info("identity ready", logger.String("onion_id", self.OnionID), logger.String("nickname", self.Nickname))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broadcastPath := socketPath(cfg.Identity.DataDir, cfg.Identity.BroadcastSocket)
	rpcPath := socketPath(cfg.Identity.DataDir, cfg.Identity.RPCSocket)
	ipcServer := ipc.New(broadcastPath, rpcPath, nil, log)

	sendr := sender.New(client, self, cfg.Tor.VirtualPort, log)

	focused := &atomic.Bool{}
	router := rpc.New(db, self, sendr, client, ipcServer, nil, focused, cfg.Tor.VirtualPort, log)
	ipcServer.SetRouter(router)

	notifier := newNotifier(cfg)
	events := make(chan dispatch.InboundEvent, 64)
	dispatcher := dispatch.New(client, db, cfg.Tor.VirtualPort, events, notifier, focused, log)

	retryLoop := retry.New(db, sendr, ipcServer, cfg.Tor.RetryTick, cfg.Tor.RetryMinAge, cfg.Tor.RetryMaxAge, log)

	var metricsSrv *metrics.Server
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(log, cfg.Metrics.Port, cfg.Metrics.Path)
		log.Info("starting metrics server", logger.Int("port", cfg.Metrics.Port))
		if err := metricsSrv.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = metricsSrv.Stop(shutdownCtx)
		}()
	}

	var healthSrv *health.Server
	if cfg.Health != nil && cfg.Health.Enabled {
		checker := health.NewChecker(db, client, cfg.Health.Checks)
		healthSrv = health.NewServer(checker, log, cfg.Health.Port, cfg.Health.Path)
		log.Info("starting health server", logger.Int("port", cfg.Health.Port))
		if err := healthSrv.Start(); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = healthSrv.Stop(shutdownCtx)
		}()
	}

	// Inbound-event-to-broadcast pump: dispatch persists then emits an
	// InboundEvent (spec §5 ordering: persistence precedes broadcast);
	// this goroutine is the I in "F -> verify -> D persist -> event
	// channel -> I broadcasts" from spec §2's control-flow summary.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				ipcServer.BroadcastReload(ev.OnionID)
			}
		}
	}()

	go dispatcher.Run(ctx)
	go retryLoop.Run(ctx)

	ipcErrCh := make(chan error, 1)
	go func() { ipcErrCh <- ipcServer.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("received shutdown signal")
	case err := <-ipcErrCh:
		if err != nil {
			log.Error("ipc server exited with error", logger.Error(err))
			cancel()
			return err
		}
	}

	cancel()
	time.Sleep(100 * time.Millisecond) // let in-flight handlers finish logging
	log.Info("artichatd stopped")
	return nil
}

// bootstrapIdentity implements spec §4.E: load the identity row keyed
// by the published hidden-service address, generating and persisting
// one on first launch. The universe of entities here is small enough
// that this stays a concrete function rather than a generic
// repository abstraction (see DESIGN.md).
func bootstrapIdentity(db *store.Store, onionID string) (*identity.Identity, error) {
	u, err := db.GetUser()
	if err != nil {
		if !errors.Is(err, coreerr.ErrNotFound) {
			return nil, err
		}
		fresh, genErr := identity.Generate(onionID)
		if genErr != nil {
			return nil, genErr
		}
		if insErr := db.InsertUser(store.User{
			OnionID:    fresh.OnionID,
			Nickname:   fresh.Nickname,
			PublicKey:  fresh.PublicKeyHex(),
			PrivateKey: fresh.PrivateKeyHex(),
		}); insErr != nil {
			return nil, insErr
		}
		u, err = db.GetUser()
		if err != nil {
			return nil, err
		}
	}
	return identity.FromHex(u.OnionID, u.Nickname, u.PrivateKey, u.PublicKey)
}

func socketPath(dataDir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}
