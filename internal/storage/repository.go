package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertAlertSQL = `INSERT INTO alert_log (
        day_key,
        symbol,
        direction,
        pct_24h,
        price,
        prev_watermark,
        new_watermark
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    RETURNING id, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        day_key,
        symbol,
        direction,
        pct_24h,
        price,
        prev_watermark,
        new_watermark,
        created_at
    FROM alert_log
    ORDER BY created_at DESC
    LIMIT $1;`

	countAlertsByDaySQL = `SELECT
        day_key,
        COUNT(*) FILTER (WHERE direction = 'up'),
        COUNT(*) FILTER (WHERE direction = 'down')
    FROM alert_log
    WHERE day_key >= $1
      AND day_key <= $2
    GROUP BY day_key
    ORDER BY day_key;`

	deleteAlertsBeforeSQL = `DELETE FROM alert_log WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// AlertStore defines operations for the alert audit trail.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	CountAlertsByDay(ctx context.Context, fromDay, toDay string) ([]DayCount, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store provides Postgres-backed alert auditing.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertAlert records a delivered alert.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	var prev interface{}
	if alert.PrevWatermark != nil {
		prev = *alert.PrevWatermark
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.DayKey,
		alert.Symbol,
		alert.Direction,
		alert.Pct24h,
		alert.Price,
		prev,
		alert.NewWatermark,
	)

	rec := alert
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists the newest audit rows first.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		if scanErr := rows.Scan(
			&rec.ID,
			&rec.DayKey,
			&rec.Symbol,
			&rec.Direction,
			&rec.Pct24h,
			&rec.Price,
			&rec.PrevWatermark,
			&rec.NewWatermark,
			&rec.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan alert: %w", scanErr)
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// CountAlertsByDay aggregates delivered up/down alerts per day bucket.
func (s *Store) CountAlertsByDay(ctx context.Context, fromDay, toDay string) ([]DayCount, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, countAlertsByDaySQL, fromDay, toDay)
	if queryErr != nil {
		return nil, fmt.Errorf("count alerts by day: %w", queryErr)
	}
	defer rows.Close()

	counts := make([]DayCount, 0)
	for rows.Next() {
		var dc DayCount
		if scanErr := rows.Scan(&dc.DayKey, &dc.Ups, &dc.Downs); scanErr != nil {
			return nil, fmt.Errorf("scan day count: %w", scanErr)
		}
		counts = append(counts, dc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}

// DeleteAlertsBefore removes audit rows older than the given timestamp.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a
// release func. Used to keep overlapping runs that share one database from
// double-delivering.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

var (
	_ AlertStore     = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
