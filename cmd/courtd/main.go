package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/api/server"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/auth"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/chain"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/config"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/court"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/genesis"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/notify"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/signer"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/validation"
)

// Queued submissions whose callers have gone are swept on this interval.
const purgeInterval = 30 * time.Second

var (
	configPath string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   "courtd",
	Short: "Judicial case ledger node",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFiles(envFiles...); err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "court.yaml", "YAML config file")
	rootCmd.Flags().StringSliceVar(&envFiles, "env-file", []string{".env"}, ".env files to load before reading COURT_* variables")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// === Logging: stdout plus optional file ===
	if cfg.Node.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Node.LogFile), 0o755); err != nil {
			return err
		}
		logFile, err := os.OpenFile(cfg.Node.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}
	log.Println("🚀 Starting judicial ledger node", server.NodeVersion())

	// === Audit trail ===
	var auditLoggers audit.MultiAuditLogger
	if cfg.Audit.Stdout {
		auditLoggers = append(auditLoggers, audit.NewStdoutAuditLogger())
	}
	if cfg.Audit.Path != "" {
		jsonl, err := audit.NewJSONLAuditLogger(cfg.Audit.Path)
		if err != nil {
			return err
		}
		defer jsonl.Close()
		auditLoggers = append(auditLoggers, jsonl)
	}

	// === Node key ===
	keyLoader := signer.LoaderFor(cfg.Node.KeyDir)
	nodeKey, err := keyLoader.LoadKey()
	if err != nil {
		return fmt.Errorf("node key: %w", err)
	}
	if dl, ok := keyLoader.(*signer.DirKeyLoader); ok && dl.Created {
		log.Printf("[KEY] Generated new node key in %s", cfg.Node.KeyDir)
	}
	log.Printf("[KEY] Node public key: %s", nodeKey.PublicHex())

	// === Storage ===
	store, err := storage.NewStorage(cfg.Ledger.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	// === Genesis ===
	var genesisCfg *genesis.GenesisConfig
	if cfg.Ledger.GenesisFile != "" {
		genesisCfg, err = genesis.LoadGenesisConfig(cfg.Ledger.GenesisFile)
		if err != nil {
			return err
		}
	}

	// === Ledger ===
	hub := notify.NewHub(32)
	defer hub.Close()
	ledger, err := chain.Open(store, chain.Config{
		Difficulty:  cfg.Ledger.Difficulty,
		Genesis:     genesisCfg,
		PoolSize:    cfg.Ledger.PoolSize,
		MaxRetries:  cfg.Ledger.MaxRetries,
		Checkpoints: store,
		Audit:       auditLoggers,
		Publisher:   hub,
	})
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	if cr := ledger.Corruption(); cr != nil {
		log.Printf("⚠️  Ledger opened read-only: block %d failed verification: %s", cr.Index, cr.Reason)
	}
	log.Printf("[CHAIN] %d blocks, difficulty %d", ledger.Length(), ledger.Difficulty())

	ledgerCtx, stopLedger := context.WithCancel(context.Background())
	ledgerDone := make(chan struct{})
	go func() {
		defer close(ledgerDone)
		if err := ledger.Run(ledgerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[CHAIN] worker stopped: %v", err)
		}
	}()
	go purgeLoop(ledgerCtx, ledger)
	defer func() {
		// Cancelling the worker discards any block still being mined.
		stopLedger()
		<-ledgerDone
		if err := ledger.Close(); err != nil {
			log.Printf("[CHAIN] close: %v", err)
		}
	}()

	// === Auth ===
	keys, generated, err := auth.NewStaticKeyProvider("court-1", cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}
	if generated {
		log.Println("⚠️  No JWT secret configured; tokens will not survive a restart")
	}
	users := auth.NewUserStore(store, 0)
	if ok, err := users.EnsureAdmin(cfg.Auth.AdminUser, cfg.Auth.AdminPassword); err != nil {
		log.Printf("⚠️  Admin bootstrap skipped: %v", err)
	} else if ok {
		log.Printf("[AUTH] Created admin account %q", cfg.Auth.AdminUser)
	}
	authz := &auth.Authorizer{
		Users: users,
		Tokens: &auth.TokenIssuer{
			Keys:   keys,
			Issuer: "court-ledger",
			TTL:    cfg.Auth.TokenTTL,
		},
		AuditLogger: auditLoggers,
	}

	validator, err := validation.New(auditLoggers)
	if err != nil {
		return err
	}

	// === API ===
	svc := court.NewService(ledger, court.NewJudgeDirectory(store), nodeKey, auditLoggers)
	srv := server.NewServer(svc, authz, validator, hub, store, cfg.Server)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	select {
	case <-ctx.Done():
		log.Println("🛑 Shutdown requested")
	case err = <-serveErr:
		log.Printf("❌ API server stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] shutdown: %v", err)
	}
	log.Println("👋 Node stopped")
	return err
}

func purgeLoop(ctx context.Context, ledger *chain.Chain) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := ledger.PurgeAbandoned(); n > 0 {
				log.Printf("[MEMPOOL] Purged %d abandoned submissions", n)
			}
		}
	}
}
