package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/config"
	"github.com/anicoll/acinfinity-integration/internal/pkg/coordinator"
	"github.com/anicoll/acinfinity-integration/internal/pkg/database"
	"github.com/anicoll/acinfinity-integration/internal/pkg/database/migration"
	"github.com/anicoll/acinfinity-integration/internal/pkg/metrics"
	"github.com/anicoll/acinfinity-integration/internal/pkg/migrator"
	"github.com/anicoll/acinfinity-integration/internal/pkg/mqtt"
	"github.com/anicoll/acinfinity-integration/internal/pkg/publisher"
	"github.com/anicoll/acinfinity-integration/internal/pkg/reconciler"
	"github.com/anicoll/acinfinity-integration/internal/pkg/registry"
	"github.com/anicoll/acinfinity-integration/internal/pkg/server"
)

var errCron = errors.New("cron error")

// RunCommand is the main entry point: it loads the configuration, prepares
// the database and runs the bridge until interrupted.
func RunCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()

	ctx := c.Context
	if err := migration.Migrate(cfg.DatabaseURL, cfg.MigrationsFolder); err != nil {
		return err
	}
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	entry, err := resolveEntry(ctx, cfg, db, login(cfg.AcInfinityCfg.Host))
	if err != nil {
		return err
	}

	store := acinfinity.NewService(acinfinity.NewClient(cfg.AcInfinityCfg.Host, entry.Data.Email, entry.Data.Password))
	defer store.Close()

	mqttSvc := mqtt.New(paho_mqtt.NewClient(mqtt.NewClientOptions(cfg.MqttCfg.Host, cfg.MqttCfg.Username, cfg.MqttCfg.Password)))
	if err := publisher.RegisterPublisher("mqtt", mqttSvc); err != nil {
		return err
	}

	reg := registry.New(mqttSvc, db)
	m := metrics.New(prometheus.NewRegistry())
	coord := coordinator.New(
		entry.ID,
		db,
		store,
		migrator.New(store, db),
		reconciler.New(store, db, reg),
		reg,
		m,
	)

	srv := server.New(coord, db, db, m.Handler(), cfg.AllowedOrigins)
	defer srv.Close()
	if err := publisher.RegisterPublisher("websocket", srv); err != nil {
		return err
	}

	err = run(ctx, cfg, mqttSvc, coord, reg, srv.Router())
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}

// MigrateCommand applies the database migrations and exits.
func MigrateCommand(c *cli.Context) error {
	logger, err := setupLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	return migration.Migrate(c.String("database-url"), c.String("migrations-folder"))
}

// ImportEntryCommand stores a config entry read from a YAML file, e.g. one
// exported from an earlier installation.
func ImportEntryCommand(c *cli.Context) error {
	logger, err := setupLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return err
	}
	entry, err := parseEntry(data)
	if err != nil {
		return err
	}

	db, err := database.New(c.Context, c.String("database-url"))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SaveEntry(c.Context, entry); err != nil {
		return err
	}
	logger.Info("imported config entry", zap.String("entry", entry.ID), zap.Int("version", entry.Version))
	return nil
}

func setupLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func login(host string) func(ctx context.Context, email, password string) error {
	return func(ctx context.Context, email, password string) error {
		client := acinfinity.NewClient(host, email, password)
		defer client.Close()
		return client.Login(ctx)
	}
}

func run(ctx context.Context, cfg *config.Config, mqttSvc MqttService, coord Coordinator, republisher Republisher, handler http.Handler) error {
	logger := zap.L()
	if err := mqttSvc.Connect(); err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	defer mqttSvc.Disconnect()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return coord.Run(ctx)
	})

	eg.Go(func() error {
		return cronRepublish(ctx, republisher, cfg.RepublishCron)
	})

	srv := &http.Server{
		Handler:      handler,
		Addr:         cfg.HTTPAddr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	eg.Go(func() error {
		logger.Info("serving http", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("context done")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func cronRepublish(ctx context.Context, republisher Republisher, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := republisher.Republish(ctx); err != nil {
			zap.L().Error("error republishing discovery configs", zap.Error(err))
			return
		}
		zap.L().Info("republished discovery configs")
	}); err != nil {
		return fmt.Errorf("%w: %w", errCron, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}
