package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"market-movers-alerts/internal/alerting"
	"market-movers-alerts/internal/config"
	"market-movers-alerts/internal/fetcher"
	"market-movers-alerts/internal/scheduler"
	"market-movers-alerts/internal/service"
	"market-movers-alerts/internal/state"
	"market-movers-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newProvider() fetcher.SnapshotFetcher {
	src := a.Config.Source
	gecko := fetcher.NewGecko(fetcher.GeckoOptions{
		BaseURL:   src.Gecko.BaseURL,
		Pages:     src.Gecko.Pages,
		PerPage:   src.Gecko.PerPage,
		Backoff:   src.Gecko.Backoff,
		Timeout:   src.RequestTimeout,
		UserAgent: src.UserAgent,
	}, a.Logger)
	paprika := fetcher.NewPaprika(fetcher.PaprikaOptions{
		BaseURL:   src.Paprika.BaseURL,
		Timeout:   src.RequestTimeout,
		UserAgent: src.UserAgent,
	}, a.Logger)

	switch src.Provider {
	case "gecko":
		return gecko
	case "paprika":
		return paprika
	default:
		return fetcher.NewFallback(gecko, paprika, a.Logger)
	}
}

func (a *App) newNotifier() alerting.Notifier {
	tg := a.Config.Delivery.Telegram
	if !tg.Enabled {
		return nil
	}
	return alerting.NewTelegramNotifier(tg.BotToken, tg.ChatID, tg.APIBase, tg.RequestTimeout, a.Logger)
}

func (a *App) newDispatcher(notifier alerting.Notifier) *alerting.Dispatcher {
	d := a.Config.Delivery
	return alerting.NewDispatcher(notifier, alerting.Options{
		PerAsset:      d.Mode == "per-asset",
		MaxDownItems:  d.ResolveMaxDownItems(),
		MaxUpItems:    d.ResolveMaxUpItems(),
		UpIcon:        d.UpIcon,
		DownIcon:      d.DownIcon,
		ShowVolume:    d.ShowVolume,
		ShowMarketCap: d.ShowMarketCap,
		SendSpacing:   d.SendSpacing,
		UpThreshold:   a.Config.Thresholds.UpPct,
		DownThreshold: a.Config.Thresholds.DownPct,
	}, a.Logger)
}

func (a *App) openAudit(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newService(ctx context.Context) (*service.Service, func(), error) {
	return a.newServiceWith(ctx, a.newProvider())
}

func (a *App) newServiceWith(ctx context.Context, provider fetcher.SnapshotFetcher) (*service.Service, func(), error) {
	notifier := a.newNotifier()
	if notifier == nil {
		return nil, nil, errors.New("no delivery channel configured; enable delivery.telegram")
	}

	loc, err := a.Config.Location()
	if err != nil {
		return nil, nil, err
	}

	audit, closeAudit, err := a.openAudit(ctx)
	if err != nil {
		return nil, nil, err
	}
	if audit == nil {
		a.Logger.Debug().Msg("database.dsn not configured; alert audit trail disabled")
	}

	var auditStore storage.AlertStore
	var locker storage.AdvisoryLocker
	if audit != nil {
		auditStore = audit
		locker = audit
	}

	states := state.NewStore(a.Config.Dedup.StatePath, a.Logger)
	svc := service.New(a.Config, provider, states, a.newDispatcher(notifier), auditStore, locker, loc, a.Logger)
	return svc, closeAudit, nil
}

// Run executes one polling run, the mode intended for external schedulers.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, closer, err := a.newService(ctx)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	return svc.RunOnce(ctx, time.Now())
}

// Watch runs the polling loop on the configured interval until interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, closer, err := a.newService(ctx)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Dur("interval", a.Config.Scheduler.Interval).Msg("starting watch loop")
	err = sched.Run(ctx, svc.RunOnce)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch loop terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch loop stopped")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting the alert history.
type ExportOptions struct {
	FromDay string
	ToDay   string
	PNGPath string
	CSVPath string
}
