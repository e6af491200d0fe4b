package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funding-arb-bot/internal/alerts"
	"funding-arb-bot/internal/config"
	"funding-arb-bot/internal/exec"
	extexchange "funding-arb-bot/internal/extended/exchange"
	extrest "funding-arb-bot/internal/extended/rest"
	"funding-arb-bot/internal/metrics"
	pacexchange "funding-arb-bot/internal/pacifica/exchange"
	pacrest "funding-arb-bot/internal/pacifica/rest"
	"funding-arb-bot/internal/pacifica/ws"
	"funding-arb-bot/internal/reconcile"
	"funding-arb-bot/internal/state"
	"funding-arb-bot/internal/state/sqlite"
	"funding-arb-bot/internal/timescale"
	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

// App owns the trading loop: it wakes on schedule, reconciles held positions
// against the current funding relationship, and opens new carry pairs when
// the thresholds allow.
type App struct {
	cfg        *config.Config
	log        *zap.Logger
	metrics    *metrics.Metrics
	extended   venue.Venue
	pacifica   venue.Venue
	saga       *exec.Saga
	reconciler *reconcile.Reconciler
	writer     *timescale.Writer
	telegram   *alerts.Telegram
	prices     *ws.Client
	store      state.Store

	// halted pairs stay halted until restart: an unrecoverable unwind means
	// the books need human eyes before the bot touches that pair again.
	halted map[string]bool
	now    func() time.Time
}

// New wires the full stack from config and credentials.
func New(ctx context.Context, cfg *config.Config, creds config.Credentials, log *zap.Logger, m *metrics.Metrics) (*App, error) {
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	nonces, err := extexchange.NewNonceSource(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("restore nonce: %w", err)
	}

	extSigner, err := extexchange.NewSigner(creds.ExtendedStarkPrivateKey, creds.ExtendedStarkPublicKey, creds.ExtendedVaultID)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("extended signer: %w", err)
	}
	extRest := extrest.New(cfg.Extended.BaseURL, cfg.Extended.Timeout, creds.ExtendedAPIKey, log)
	extended := &extendedVenue{
		rest:     extRest,
		exchange: extexchange.NewClient(extRest, extexchange.NewOrderBuilder(extSigner, nonces, cfg.Strategy.SlippagePercent), log),
	}

	pacSigner, err := pacexchange.NewSigner(creds.PacificaPrivateKey)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("pacifica signer: %w", err)
	}
	if account := pacSigner.Account(); account != creds.PacificaWalletAddress {
		_ = store.Close()
		return nil, fmt.Errorf("pacifica key derives %s but wallet address is %s", account, creds.PacificaWalletAddress)
	}
	pacRest := pacrest.New(cfg.Pacifica.BaseURL, cfg.Pacifica.Timeout, creds.PacificaWalletAddress, log)
	pacifica := &pacificaVenue{
		rest:     pacRest,
		exchange: pacexchange.NewClient(pacRest, pacexchange.NewOrderBuilder(pacSigner, cfg.Strategy.SlippagePercent), log),
	}

	writer, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("timescale: %w", err)
	}

	var prices *ws.Client
	if cfg.Pacifica.WSURL != "" {
		prices = ws.New(cfg.Pacifica.WSURL, cfg.Pacifica.ReconnectDelay, cfg.Pacifica.PingInterval, log)
	}

	app := newApp(cfg, extended, pacifica, m, log)
	app.writer = writer
	app.telegram = alerts.NewTelegram(cfg.Telegram, log)
	app.prices = prices
	app.store = store
	return app, nil
}

func newApp(cfg *config.Config, extended, pacifica venue.Venue, m *metrics.Metrics, log *zap.Logger) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		extended:   extended,
		pacifica:   pacifica,
		saga:       exec.New(m, log),
		reconciler: reconcile.New(m, log),
		halted:     make(map[string]bool),
		now:        time.Now,
	}
}

// Run drives cycles until ctx is canceled. Each iteration waits for the next
// scheduled slot first, so an align-minute config fires at the configured
// minute rather than immediately on startup.
func (a *App) Run(ctx context.Context) error {
	a.writer.Start(ctx)
	if a.prices != nil {
		go func() {
			if err := a.prices.Run(ctx); err != nil && ctx.Err() == nil {
				a.log.Error("price stream stopped", zap.Error(err))
			}
		}()
	}
	for {
		wait := a.nextWait()
		a.log.Info("next cycle scheduled", zap.Duration("in", wait))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		a.RunCycle(ctx)
	}
}

func (a *App) nextWait() time.Duration {
	if minute := a.cfg.Strategy.AlignMinute; minute != nil {
		return durationUntilAligned(a.now(), *minute)
	}
	return a.cfg.Strategy.Interval
}

// Close releases the state store and flushes the journal connection.
func (a *App) Close() error {
	var errs []error
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Funding settles hourly on both venues; cycles align to Indian Standard
// Time, whose half-hour offset keeps the target minute clear of the
// settlement boundary in any whole-hour zone.
var istZone = time.FixedZone("IST", 5*3600+1800)

// durationUntilAligned is the wait until the next occurrence of the target
// minute on the IST wall clock.
func durationUntilAligned(now time.Time, minute int) time.Duration {
	local := now.In(istZone)
	seconds := (minute-local.Minute())*60 - local.Second()
	if seconds <= 0 {
		seconds += 3600
	}
	return time.Duration(seconds) * time.Second
}
