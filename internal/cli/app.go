package cli

import (
	"context"
	"errors"
	"fmt"

	"cablebill/internal/amqp"
	"cablebill/internal/backend"
	"cablebill/internal/config"
	"cablebill/internal/ledger"
	"cablebill/internal/log"
	"cablebill/internal/notify"
	"cablebill/internal/remote"
)

// App bundles the ledger with the collaborators configured for it.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Ledger   *ledger.Repository
	Remote   *remote.Client // nil unless REMOTE_URL is set
	Syncer   *remote.Syncer // nil unless REMOTE_URL is set
	Events   *amqp.Client   // nil unless AMQP_URL is set and reachable
	Notifier *notify.Notifier

	cleanup backend.CleanupFunc
}

// Bootstrap opens the configured store and loads the ledger. AMQP is
// optional: a broker that cannot be reached is logged and skipped.
func Bootstrap(ctx context.Context, logger *log.Logger, cfg *config.Config) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, cleanup: res.Cleanup}
	opts := []ledger.Option{ledger.WithLogger(logger)}

	if cfg.RemoteURL != "" {
		app.Remote, err = remote.NewClient(cfg.RemoteURL, cfg.RemoteTimeout)
		if err != nil {
			res.Cleanup()
			return nil, fmt.Errorf("remote client: %w", err)
		}
		if cfg.RemoteEnabled() {
			opts = append(opts, ledger.WithRemote(app.Remote))
		}
	}

	if cfg.AMQPEnabled() {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			app.Events = events
			opts = append(opts, ledger.WithPublisher(events))
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	app.Ledger, err = ledger.Open(ctx, res.Store, opts...)
	if err != nil {
		app.closeCollaborators()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	if app.Remote != nil {
		app.Syncer = remote.NewSyncer(app.Remote, app.Ledger, logger)
		logger.Info("Remote sync configured",
			log.FieldRemoteURL, app.Remote.BaseURL(), "sync_enabled", cfg.SyncEnabled)
	}
	app.Notifier = notify.NewNotifier(logger,
		notify.NewHTTPSender(notify.ChannelSMS, cfg.SMSAPIURL, cfg.SMSAPIKey, 0),
		notify.NewHTTPSender(notify.ChannelWhatsApp, cfg.WhatsAppAPIURL, cfg.WhatsAppAPIKey, 0))

	return app, nil
}

// Close flushes the ledger and releases the store and broker connection.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Ledger != nil {
		if err := a.Ledger.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close ledger: %w", err))
		}
	}
	if err := a.closeCollaborators(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeCollaborators() error {
	var errs []error
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp: %w", err))
		}
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
