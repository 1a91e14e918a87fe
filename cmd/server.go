package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/api"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/config"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/container"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/metrics"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the QMS API server.
The server will listen on the configured host and port and provide
REST API interfaces for quality record workflow management.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// Hot-reload the log level when the config file changes.
		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath)
			watcher.OnConfigChange(func(updated *config.Config) {
				level, err := logrus.ParseLevel(updated.Log.Level)
				if err != nil {
					log.Printf("Ignoring config reload with bad log level %q", updated.Log.Level)
					return
				}
				api.SetLoggerLevel(level)
				log.Printf("Config reloaded, log level now %s", updated.Log.Level)
			})
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("failed to start config watcher: %w", err)
			}
			defer watcher.Stop()
		}

		// Background gauge refresh for db pool and per-phase record counts.
		collector := metrics.NewCollector(ctr.DB(), 30*time.Second)
		collector.Start()
		defer collector.Stop()

		// Nightly full backups with 30 day retention.
		scheduler := service.NewBackupScheduler(ctr.BackupService(), nil)
		if err := scheduler.Start(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start backup scheduler: %w", err)
		}
		defer scheduler.Stop()

		router := api.SetupRoutes(&api.RouterConfig{
			DB:             ctr.DB(),
			Validator:      ctr.KeycloakValidator(),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RateLimitRPS:   cfg.RateLimit.RPS,
			RateLimitBurst: cfg.RateLimit.Burst,
			EnforceHTTPS:   cfg.Env == "production",
			CAPA:           api.NewCAPAController(ctr.CAPAService()),
			ChangeControl:  api.NewChangeControlController(ctr.ChangeControlService()),
			Deviation:      api.NewDeviationController(ctr.DeviationService()),
			Document:       api.NewDocumentController(ctr.DocumentService()),
			Risk:           api.NewRiskController(ctr.RiskService()),
			Signature:      api.NewSignatureController(ctr.SignatureService()),
			Workflow:       api.NewWorkflowController(ctr.Registry()),
			Statistics:     api.NewStatisticsController(ctr.StatisticsService()),
			Backup:         api.NewBackupController(ctr.BackupService()),
		})

		router.NoRoute(func(c *gin.Context) {
			api.Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
		})

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			log.Printf("Server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		log.Println("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig loads the application configuration, exposed for tests.
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
