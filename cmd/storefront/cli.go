package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go-storefront/internal/boot"
	"go-storefront/internal/config"
	"go-storefront/internal/logging"
	"go-storefront/internal/repository/postgres"
	jwtsec "go-storefront/internal/security/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultConfig  = "configs/config.dev.yaml"
	fallbackConfig = "configs/config.example.yaml"
)

var rootCmd = &cobra.Command{
	Use:          "storefront",
	Short:        "Storefront backend",
	Long:         `Admin audit log, product catalog and shopping cart service.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig --config > CONFIG_PATH > dev > example
func resolveConfig(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfig
	}
	if _, err := os.Stat(path); err != nil {
		if _, err2 := os.Stat(fallbackConfig); err2 != nil {
			return "", fmt.Errorf("config file not found: %s (fallback %s also missing)", path, fallbackConfig)
		}
		log.Printf("config %s not found, fallback to %s", path, fallbackConfig)
		path = fallbackConfig
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		app, err := boot.InitApp(cfgPath)
		if err != nil {
			return fmt.Errorf("init app: %w", err)
		}
		defer app.Close()

		addr := app.Config.HTTP.Addr
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			addr = fmt.Sprintf(":%d", port)
		}
		srv := &http.Server{Addr: addr, Handler: app.HTTP, ReadHeaderTimeout: 10 * time.Second}

		ctx, stop := signalContext()
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			app.Logger.Info("http_server_start", zap.String("addr", addr), zap.String("config", cfgPath))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			app.Logger.Error("http_server_error", zap.Error(err))
			return err
		}
		app.Logger.Info("shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("http_shutdown_error", zap.Error(err))
		}
		return nil
	},
}

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume the audit topic and persist events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		app, err := boot.InitConsumer(cfgPath)
		if err != nil {
			return fmt.Errorf("init consumer: %w", err)
		}
		defer app.Close()
		ctx, stop := signalContext()
		defer stop()
		if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		app.Logger.Info("audit_consumer_stopped")
		return nil
	},
}

// loadBase 只需要配置与日志的子命令
func loadBase(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	cfgPath, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	lg, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lg, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := loadBase(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = lg.Sync() }()
		return postgres.RunMigrations(cfg.Postgres.DSN, lg.Logger)
	},
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Copy legacy admin_logs and website_updates into audit_log",
	Long: `Copies rows from the legacy log tables into the unified audit_log table.
Rows already copied are skipped, so the command can be re-run.
Exits non-zero when any row failed to copy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		c, err := boot.InitConsolidator(cfgPath)
		if err != nil {
			return fmt.Errorf("init consolidator: %w", err)
		}
		defer c.Close()
		ctx, stop := signalContext()
		defer stop()
		rep, err := c.Service.Run(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
		if n := rep.Failed(); n > 0 {
			return fmt.Errorf("%d legacy rows failed to migrate", n)
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an admin or customer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadBase(cmd)
		if err != nil {
			return err
		}
		scope, _ := cmd.Flags().GetString("scope")
		id, _ := cmd.Flags().GetInt64("id")
		if scope != jwtsec.ScopeAdmin && scope != jwtsec.ScopeCustomer {
			return fmt.Errorf("unknown scope %q", scope)
		}
		if id <= 0 {
			return errors.New("--id must be positive")
		}
		tok, err := boot.NewJWTManager(cfg).Generate(id, scope, uuid.NewString())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on, overrides http.addr")
	tokenCmd.Flags().String("scope", jwtsec.ScopeAdmin, "token scope: admin or customer")
	tokenCmd.Flags().Int64("id", 0, "admin or customer id")

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.AddCommand(serveCmd, consumeCmd, migrateCmd, consolidateCmd, tokenCmd)
}
