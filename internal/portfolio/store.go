package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"DivTracker/internal/model"
)

var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrPositionNotFound  = errors.New("position not found")
)

// Store persists portfolios and positions on the shared SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore runs the portfolio migrations and returns the store.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate portfolio tables: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			name                  TEXT NOT NULL,
			is_main               INTEGER NOT NULL DEFAULT 0,
			monthly_dividend_goal REAL,
			created_at            INTEGER NOT NULL,
			updated_at            INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id   INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			ticker         TEXT NOT NULL,
			shares         REAL NOT NULL,
			purchase_price REAL NOT NULL,
			purchase_date  INTEGER NOT NULL,
			current_price  REAL,
			dividend_yield REAL,
			created_at     INTEGER NOT NULL,
			updated_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_portfolio ON positions(portfolio_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// CreatePortfolio inserts a portfolio. The user's first portfolio becomes the
// main one.
func (s *Store) CreatePortfolio(name string) (*model.Portfolio, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("portfolio name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM portfolios`).Scan(&existing); err != nil {
		return nil, fmt.Errorf("count portfolios: %w", err)
	}

	now := time.Now().Unix()
	res, err := s.db.Exec(`INSERT INTO portfolios (name, is_main, created_at, updated_at)
		VALUES (?,?,?,?)`, name, boolToInt(existing == 0), now, now)
	if err != nil {
		return nil, fmt.Errorf("create portfolio: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("portfolio id: %w", err)
	}
	return s.getPortfolio(id)
}

// ListPortfolios returns all portfolios, main first, then newest first.
func (s *Store) ListPortfolios() ([]model.Portfolio, error) {
	rows, err := s.db.Query(`SELECT id, name, is_main, monthly_dividend_goal, created_at, updated_at
		FROM portfolios ORDER BY is_main DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []model.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, *p)
	}
	return portfolios, rows.Err()
}

// GetPortfolio returns the portfolio or ErrPortfolioNotFound.
func (s *Store) GetPortfolio(id int64) (*model.Portfolio, error) {
	return s.getPortfolio(id)
}

func (s *Store) getPortfolio(id int64) (*model.Portfolio, error) {
	row := s.db.QueryRow(`SELECT id, name, is_main, monthly_dividend_goal, created_at, updated_at
		FROM portfolios WHERE id = ?`, id)
	p, err := scanPortfolio(row)
	if err == sql.ErrNoRows {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get portfolio %d: %w", id, err)
	}
	return p, nil
}

// MainPortfolio returns the main portfolio, or nil when none exists.
func (s *Store) MainPortfolio() (*model.Portfolio, error) {
	row := s.db.QueryRow(`SELECT id, name, is_main, monthly_dividend_goal, created_at, updated_at
		FROM portfolios WHERE is_main = 1`)
	p, err := scanPortfolio(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get main portfolio: %w", err)
	}
	return p, nil
}

// SetMain marks the portfolio as main, clearing the flag everywhere else
// first so at most one main exists.
func (s *Store) SetMain(id int64) (*model.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin set main: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE portfolios SET is_main = 0 WHERE is_main = 1`); err != nil {
		return nil, fmt.Errorf("clear main flags: %w", err)
	}
	res, err := tx.Exec(`UPDATE portfolios SET is_main = 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("set main %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrPortfolioNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit set main: %w", err)
	}
	return s.getPortfolio(id)
}

// RenamePortfolio updates the portfolio name.
func (s *Store) RenamePortfolio(id int64, name string) (*model.Portfolio, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("portfolio name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE portfolios SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("rename portfolio %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrPortfolioNotFound
	}
	return s.getPortfolio(id)
}

// SetMonthlyGoal sets or clears the monthly dividend goal.
func (s *Store) SetMonthlyGoal(id int64, goal *float64) (*model.Portfolio, error) {
	if goal != nil && *goal < 0 {
		return nil, errors.New("monthly goal must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var value sql.NullFloat64
	if goal != nil {
		value = sql.NullFloat64{Float64: *goal, Valid: true}
	}
	res, err := s.db.Exec(`UPDATE portfolios SET monthly_dividend_goal = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("set monthly goal %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrPortfolioNotFound
	}
	return s.getPortfolio(id)
}

// DeletePortfolio removes the portfolio and its positions.
func (s *Store) DeletePortfolio(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM positions WHERE portfolio_id = ?`, id); err != nil {
		return fmt.Errorf("delete positions of %d: %w", id, err)
	}
	res, err := s.db.Exec(`DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// CreatePosition validates and inserts a position.
func (s *Store) CreatePosition(pos *model.Position) (*model.Position, error) {
	if err := validatePosition(pos); err != nil {
		return nil, err
	}
	if _, err := s.getPortfolio(pos.PortfolioID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	res, err := s.db.Exec(`INSERT INTO positions
		(portfolio_id, ticker, shares, purchase_price, purchase_date, current_price, dividend_yield, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		pos.PortfolioID, strings.ToUpper(pos.Ticker), pos.Shares, pos.PurchasePrice,
		pos.PurchaseDate.Unix(), nullFloat(pos.CurrentPrice), nullFloat(pos.DividendYield), now, now)
	if err != nil {
		return nil, fmt.Errorf("create position: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("position id: %w", err)
	}
	return s.getPosition(id)
}

// UpdatePosition overwrites the mutable fields of a position.
func (s *Store) UpdatePosition(pos *model.Position) (*model.Position, error) {
	if err := validatePosition(pos); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE positions SET
		ticker = ?, shares = ?, purchase_price = ?, purchase_date = ?,
		current_price = ?, dividend_yield = ?, updated_at = ?
		WHERE id = ?`,
		strings.ToUpper(pos.Ticker), pos.Shares, pos.PurchasePrice, pos.PurchaseDate.Unix(),
		nullFloat(pos.CurrentPrice), nullFloat(pos.DividendYield), time.Now().Unix(), pos.ID)
	if err != nil {
		return nil, fmt.Errorf("update position %d: %w", pos.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrPositionNotFound
	}
	return s.getPosition(pos.ID)
}

// DeletePosition removes a position.
func (s *Store) DeletePosition(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM positions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete position %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPositionNotFound
	}
	return nil
}

// Positions returns a portfolio's positions, newest first.
func (s *Store) Positions(portfolioID int64) ([]model.Position, error) {
	rows, err := s.db.Query(`SELECT id, portfolio_id, ticker, shares, purchase_price,
		purchase_date, current_price, dividend_yield, created_at, updated_at
		FROM positions WHERE portfolio_id = ? ORDER BY created_at DESC, id DESC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var (
			pos          model.Position
			purchaseDate int64
			currentPrice sql.NullFloat64
			yield        sql.NullFloat64
			createdAt    int64
			updatedAt    int64
		)
		if err := rows.Scan(&pos.ID, &pos.PortfolioID, &pos.Ticker, &pos.Shares, &pos.PurchasePrice,
			&purchaseDate, &currentPrice, &yield, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		pos.PurchaseDate = time.Unix(purchaseDate, 0)
		if currentPrice.Valid {
			v := currentPrice.Float64
			pos.CurrentPrice = &v
		}
		if yield.Valid {
			v := yield.Float64
			pos.DividendYield = &v
		}
		pos.CreatedAt = time.Unix(createdAt, 0)
		pos.UpdatedAt = time.Unix(updatedAt, 0)
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (s *Store) getPosition(id int64) (*model.Position, error) {
	row := s.db.QueryRow(`SELECT id, portfolio_id, ticker, shares, purchase_price,
		purchase_date, current_price, dividend_yield, created_at, updated_at
		FROM positions WHERE id = ?`, id)

	var (
		pos          model.Position
		purchaseDate int64
		currentPrice sql.NullFloat64
		yield        sql.NullFloat64
		createdAt    int64
		updatedAt    int64
	)
	err := row.Scan(&pos.ID, &pos.PortfolioID, &pos.Ticker, &pos.Shares, &pos.PurchasePrice,
		&purchaseDate, &currentPrice, &yield, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position %d: %w", id, err)
	}
	pos.PurchaseDate = time.Unix(purchaseDate, 0)
	if currentPrice.Valid {
		v := currentPrice.Float64
		pos.CurrentPrice = &v
	}
	if yield.Valid {
		v := yield.Float64
		pos.DividendYield = &v
	}
	pos.CreatedAt = time.Unix(createdAt, 0)
	pos.UpdatedAt = time.Unix(updatedAt, 0)
	return &pos, nil
}

// UpdateCurrentPrice writes a fresh price onto every position of the
// portfolio holding the ticker. Returns the number of rows touched.
func (s *Store) UpdateCurrentPrice(portfolioID int64, ticker string, price float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE positions SET current_price = ?, updated_at = ?
		WHERE portfolio_id = ? AND ticker = ?`,
		price, time.Now().Unix(), portfolioID, strings.ToUpper(ticker))
	if err != nil {
		return 0, fmt.Errorf("update current price %s: %w", ticker, err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPortfolio(row rowScanner) (*model.Portfolio, error) {
	var (
		p         model.Portfolio
		isMain    int
		goal      sql.NullFloat64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.Name, &isMain, &goal, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.IsMain = isMain != 0
	if goal.Valid {
		v := goal.Float64
		p.MonthlyDividendGoal = &v
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

func validatePosition(pos *model.Position) error {
	switch {
	case strings.TrimSpace(pos.Ticker) == "":
		return errors.New("ticker is required")
	case len(pos.Ticker) > 10:
		return errors.New("ticker must be at most 10 characters")
	case pos.Shares <= 0:
		return errors.New("shares must be positive")
	case pos.PurchasePrice <= 0:
		return errors.New("purchase price must be positive")
	case pos.CurrentPrice != nil && *pos.CurrentPrice <= 0:
		return errors.New("current price must be positive")
	case pos.DividendYield != nil && (*pos.DividendYield < 0 || *pos.DividendYield > 100):
		return errors.New("dividend yield must be between 0 and 100")
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
