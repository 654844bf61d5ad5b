// Package fixingstore loads published overnight fixings from PostgreSQL.
package fixingstore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/ratesource"
	"github.com/meenmo/onavg/utils"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Store reads fixings from a table with columns index_name, fixing_date and rate.
type Store struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
	log     *zap.Logger
}

type fixingRow struct {
	FixingDate time.Time `db:"fixing_date"`
	Rate       float64   `db:"rate"`
}

// New wraps an open connection.
func New(db *sqlx.DB, table string, timeout time.Duration, log *zap.Logger) (*Store, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("fixingstore: invalid table name %q", table)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, table: table, timeout: timeout, log: log.Named("fixingstore")}, nil
}

// Open connects to PostgreSQL with dsn.
func Open(ctx context.Context, dsn, table string, timeout time.Duration, log *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("fixingstore: DSN is required")
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("fixingstore: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("fixingstore: ping: %w", err)
	}
	s, err := New(db, table, timeout, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the fixings of index published for dates in [from, to).
func (s *Store) Load(ctx context.Context, index market.OvernightIndex, from, to time.Time) (*ratesource.FixingSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT fixing_date, rate FROM %s WHERE index_name = $1 AND fixing_date >= $2 AND fixing_date < $3 ORDER BY fixing_date`, s.table)
	var rows []fixingRow
	if err := s.db.SelectContext(ctx, &rows, query, index.Name, from, to); err != nil {
		return nil, fmt.Errorf("fixingstore: load %s: %w", index.Name, err)
	}

	rates := make(map[time.Time]float64, len(rows))
	for _, r := range rows {
		d := r.FixingDate.UTC()
		rates[time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)] = r.Rate
	}
	s.log.Debug("loaded fixings",
		zap.String("index", index.Name),
		zap.String("from", from.Format(utils.DateLayout)),
		zap.String("to", to.Format(utils.DateLayout)),
		zap.Int("count", len(rows)),
	)
	return ratesource.FixingSeriesOf(rates), nil
}
