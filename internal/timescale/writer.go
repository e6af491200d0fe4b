package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"funding-arb-bot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// FundingObservation is one pair's funding and price comparison, recorded
// every cycle whether or not an entry followed.
type FundingObservation struct {
	Time            time.Time
	Pair            string
	FundingExtended float64
	FundingPacifica float64
	FundingDiffPct  float64
	PriceSpreadPct  float64
}

// AttemptOutcome records what a cycle did for one pair.
type AttemptOutcome struct {
	Time    time.Time
	Pair    string
	Action  string
	Success bool
	Reason  string
}

// Writer journals observations and attempt outcomes to TimescaleDB without
// blocking the trading loop: enqueues drop when the queue is full.
type Writer struct {
	db           *sql.DB
	log          *zap.Logger
	schema       string
	observations chan FundingObservation
	attempts     chan AttemptOutcome
	started      atomic.Bool
	dropObs      atomic.Uint64
	dropAttempt  atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:           db,
		log:          log,
		schema:       schema,
		observations: make(chan FundingObservation, queueSize),
		attempts:     make(chan AttemptOutcome, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) EnqueueObservation(obs FundingObservation) {
	if w == nil {
		return
	}
	select {
	case w.observations <- obs:
		return
	default:
		if w.dropObs.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale observation queue full")
		}
	}
}

func (w *Writer) EnqueueAttempt(attempt AttemptOutcome) {
	if w == nil {
		return
	}
	select {
	case w.attempts <- attempt:
		return
	default:
		if w.dropAttempt.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale attempt queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case obs := <-w.observations:
			w.writeObservation(ctx, obs)
		case attempt := <-w.attempts:
			w.writeAttempt(ctx, attempt)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		pair TEXT NOT NULL,
		funding_extended DOUBLE PRECISION NOT NULL,
		funding_pacifica DOUBLE PRECISION NOT NULL,
		funding_diff_pct DOUBLE PRECISION NOT NULL,
		price_spread_pct DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (ts, pair)
	)`, w.table("funding_observations"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		pair TEXT NOT NULL,
		action TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		reason TEXT NOT NULL DEFAULT ''
	)`, w.table("attempt_outcomes"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("funding_observations"))); err != nil && w.log != nil {
		w.log.Warn("timescale funding_observations hypertable create failed", zap.Error(err))
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("attempt_outcomes"))); err != nil && w.log != nil {
		w.log.Warn("timescale attempt_outcomes hypertable create failed", zap.Error(err))
	}
	return nil
}

func (w *Writer) writeObservation(ctx context.Context, obs FundingObservation) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, pair, funding_extended, funding_pacifica, funding_diff_pct, price_spread_pct
	) VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (ts, pair) DO NOTHING`, w.table("funding_observations"))
	if _, err := w.db.ExecContext(ctx, query,
		obs.Time,
		obs.Pair,
		obs.FundingExtended,
		obs.FundingPacifica,
		obs.FundingDiffPct,
		obs.PriceSpreadPct,
	); err != nil && w.log != nil {
		w.log.Warn("timescale observation write failed", zap.Error(err))
	}
}

func (w *Writer) writeAttempt(ctx context.Context, attempt AttemptOutcome) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, pair, action, success, reason
	) VALUES ($1,$2,$3,$4,$5)`, w.table("attempt_outcomes"))
	if _, err := w.db.ExecContext(ctx, query,
		attempt.Time,
		attempt.Pair,
		attempt.Action,
		attempt.Success,
		attempt.Reason,
	); err != nil && w.log != nil {
		w.log.Warn("timescale attempt write failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	if w.schema == "public" {
		return name
	}
	return w.schema + "." + name
}
