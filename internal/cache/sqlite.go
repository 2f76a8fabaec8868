package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"DivTracker/internal/model"
)

// SQLiteStore implements Store on the shared SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore runs the cache migrations and returns the store.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate cache tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_quotes (
			symbol         TEXT PRIMARY KEY,
			price          REAL NOT NULL,
			change         REAL NOT NULL,
			change_percent REAL NOT NULL,
			dividend_yield REAL,
			last_updated   INTEGER NOT NULL,
			source         TEXT NOT NULL,
			created_at     INTEGER NOT NULL,
			updated_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_updated ON stock_quotes(updated_at)`,

		`CREATE TABLE IF NOT EXISTS dividend_records (
			symbol       TEXT PRIMARY KEY,
			dividend     REAL NOT NULL,
			ex_date      TEXT NOT NULL,
			record_date  TEXT NOT NULL,
			payment_date TEXT NOT NULL,
			source       TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			updated_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dividends_updated ON dividend_records(updated_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) FindQuote(symbol string) (*model.CachedQuote, error) {
	row := s.db.QueryRow(`SELECT symbol, price, change, change_percent, dividend_yield,
		last_updated, source, created_at, updated_at
		FROM stock_quotes WHERE symbol = ?`, symbol)

	var (
		entry       model.CachedQuote
		yield       sql.NullFloat64
		lastUpdated int64
		createdAt   int64
		updatedAt   int64
	)
	err := row.Scan(&entry.Symbol, &entry.Price, &entry.Change, &entry.ChangePercent,
		&yield, &lastUpdated, &entry.Source, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find quote %s: %w", symbol, err)
	}
	if yield.Valid {
		entry.DividendYield = &yield.Float64
	}
	entry.LastUpdated = time.Unix(lastUpdated, 0)
	entry.CreatedAt = time.Unix(createdAt, 0)
	entry.UpdatedAt = time.Unix(updatedAt, 0)
	return &entry, nil
}

func (s *SQLiteStore) UpsertQuote(q *model.Quote) (*model.CachedQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var yield sql.NullFloat64
	if q.DividendYield != nil {
		yield = sql.NullFloat64{Float64: *q.DividendYield, Valid: true}
	}
	now := time.Now().Unix()
	_, err := s.db.Exec(`INSERT INTO stock_quotes
		(symbol, price, change, change_percent, dividend_yield, last_updated, source, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol) DO UPDATE SET
			price = excluded.price,
			change = excluded.change,
			change_percent = excluded.change_percent,
			dividend_yield = excluded.dividend_yield,
			last_updated = excluded.last_updated,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		q.Symbol, q.Price, q.Change, q.ChangePercent, yield,
		q.LastUpdated.Unix(), string(q.Source), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert quote %s: %w", q.Symbol, err)
	}
	return s.FindQuote(q.Symbol)
}

func (s *SQLiteStore) DeleteQuote(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM stock_quotes WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("delete quote %s: %w", symbol, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteQuotesOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM stock_quotes WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old quotes: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) FreshQuotes(since time.Time) ([]model.CachedQuote, error) {
	rows, err := s.db.Query(`SELECT symbol, price, change, change_percent, dividend_yield,
		last_updated, source, created_at, updated_at
		FROM stock_quotes WHERE updated_at >= ? ORDER BY symbol`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("list fresh quotes: %w", err)
	}
	defer rows.Close()

	var entries []model.CachedQuote
	for rows.Next() {
		var (
			entry       model.CachedQuote
			yield       sql.NullFloat64
			lastUpdated int64
			createdAt   int64
			updatedAt   int64
		)
		if err := rows.Scan(&entry.Symbol, &entry.Price, &entry.Change, &entry.ChangePercent,
			&yield, &lastUpdated, &entry.Source, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan fresh quote: %w", err)
		}
		if yield.Valid {
			y := yield.Float64
			entry.DividendYield = &y
		}
		entry.LastUpdated = time.Unix(lastUpdated, 0)
		entry.CreatedAt = time.Unix(createdAt, 0)
		entry.UpdatedAt = time.Unix(updatedAt, 0)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) FindDividend(symbol string) (*model.CachedDividend, error) {
	row := s.db.QueryRow(`SELECT symbol, dividend, ex_date, record_date, payment_date,
		source, created_at, updated_at
		FROM dividend_records WHERE symbol = ?`, symbol)

	var (
		entry     model.CachedDividend
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&entry.Symbol, &entry.Dividend, &entry.ExDate, &entry.RecordDate,
		&entry.PaymentDate, &entry.Source, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find dividend %s: %w", symbol, err)
	}
	entry.CreatedAt = time.Unix(createdAt, 0)
	entry.UpdatedAt = time.Unix(updatedAt, 0)
	return &entry, nil
}

func (s *SQLiteStore) UpsertDividend(d *model.DividendRecord) (*model.CachedDividend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.db.Exec(`INSERT INTO dividend_records
		(symbol, dividend, ex_date, record_date, payment_date, source, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol) DO UPDATE SET
			dividend = excluded.dividend,
			ex_date = excluded.ex_date,
			record_date = excluded.record_date,
			payment_date = excluded.payment_date,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		d.Symbol, d.Dividend, d.ExDate, d.RecordDate, d.PaymentDate, string(d.Source), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert dividend %s: %w", d.Symbol, err)
	}
	return s.FindDividend(d.Symbol)
}

func (s *SQLiteStore) DeleteDividend(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM dividend_records WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("delete dividend %s: %w", symbol, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteDividendsOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM dividend_records WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old dividends: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Counts() (int64, int64, error) {
	var quotes, dividends int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM stock_quotes`).Scan(&quotes); err != nil {
		return 0, 0, fmt.Errorf("count quotes: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM dividend_records`).Scan(&dividends); err != nil {
		return 0, 0, fmt.Errorf("count dividends: %w", err)
	}
	return quotes, dividends, nil
}
