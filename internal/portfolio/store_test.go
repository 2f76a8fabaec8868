package portfolio

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"DivTracker/internal/model"
	"DivTracker/internal/storage"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func addPosition(t *testing.T, store *Store, portfolioID int64, ticker string, shares, price float64) *model.Position {
	t.Helper()
	pos, err := store.CreatePosition(&model.Position{
		PortfolioID:   portfolioID,
		Ticker:        ticker,
		Shares:        shares,
		PurchasePrice: price,
		PurchaseDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create position: %v", err)
	}
	return pos
}

func TestCreatePortfolio_FirstBecomesMain(t *testing.T) {
	store := testStore(t)

	first, err := store.CreatePortfolio("Dividends")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !first.IsMain {
		t.Error("first portfolio must become main")
	}

	second, err := store.CreatePortfolio("Growth")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.IsMain {
		t.Error("second portfolio must not be main")
	}
}

func TestSetMain_AtMostOne(t *testing.T) {
	store := testStore(t)
	first, _ := store.CreatePortfolio("A")
	second, _ := store.CreatePortfolio("B")

	if _, err := store.SetMain(second.ID); err != nil {
		t.Fatalf("set main: %v", err)
	}

	var mains int
	list, err := store.ListPortfolios()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, p := range list {
		if p.IsMain {
			mains++
			if p.ID != second.ID {
				t.Errorf("wrong portfolio is main: %d", p.ID)
			}
		}
	}
	if mains != 1 {
		t.Errorf("expected exactly one main portfolio, got %d", mains)
	}
	if list[0].ID != second.ID {
		t.Error("list must order the main portfolio first")
	}

	refreshed, err := store.GetPortfolio(first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if refreshed.IsMain {
		t.Error("previous main must be cleared")
	}
}

func TestPositionValidation(t *testing.T) {
	store := testStore(t)
	p, _ := store.CreatePortfolio("A")

	tests := []struct {
		name string
		pos  model.Position
	}{
		{"no ticker", model.Position{PortfolioID: p.ID, Shares: 1, PurchasePrice: 10}},
		{"zero shares", model.Position{PortfolioID: p.ID, Ticker: "KO", PurchasePrice: 10}},
		{"zero price", model.Position{PortfolioID: p.ID, Ticker: "KO", Shares: 1}},
		{"negative yield", model.Position{PortfolioID: p.ID, Ticker: "KO", Shares: 1, PurchasePrice: 10, DividendYield: fptr(-1)}},
		{"yield over 100", model.Position{PortfolioID: p.ID, Ticker: "KO", Shares: 1, PurchasePrice: 10, DividendYield: fptr(101)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := tt.pos
			pos.PurchaseDate = time.Now()
			if _, err := store.CreatePosition(&pos); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreatePosition_UppercasesTicker(t *testing.T) {
	store := testStore(t)
	p, _ := store.CreatePortfolio("A")
	pos := addPosition(t, store, p.ID, "ko", 10, 100)
	if pos.Ticker != "KO" {
		t.Errorf("expected uppercase ticker, got %q", pos.Ticker)
	}
}

func TestDeletePortfolio_CascadesPositions(t *testing.T) {
	store := testStore(t)
	p, _ := store.CreatePortfolio("A")
	addPosition(t, store, p.ID, "KO", 10, 100)

	if err := store.DeletePortfolio(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetPortfolio(p.ID); !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("expected ErrPortfolioNotFound, got %v", err)
	}
	positions, err := store.Positions(p.ID)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("expected cascaded delete, got %d positions", len(positions))
	}
}

func TestSetMonthlyGoal_RoundTrip(t *testing.T) {
	store := testStore(t)
	p, _ := store.CreatePortfolio("A")

	updated, err := store.SetMonthlyGoal(p.ID, fptr(500))
	if err != nil {
		t.Fatalf("set goal: %v", err)
	}
	if updated.MonthlyDividendGoal == nil || *updated.MonthlyDividendGoal != 500 {
		t.Errorf("expected goal 500, got %v", updated.MonthlyDividendGoal)
	}
	if updated.AnnualDividendGoal() != 6000 {
		t.Errorf("expected derived annual goal 6000, got %v", updated.AnnualDividendGoal())
	}

	cleared, err := store.SetMonthlyGoal(p.ID, nil)
	if err != nil {
		t.Fatalf("clear goal: %v", err)
	}
	if cleared.MonthlyDividendGoal != nil {
		t.Error("expected goal cleared")
	}
}

func TestUpdateCurrentPrice(t *testing.T) {
	store := testStore(t)
	p, _ := store.CreatePortfolio("A")
	addPosition(t, store, p.ID, "KO", 10, 100)
	addPosition(t, store, p.ID, "KO", 5, 90)
	addPosition(t, store, p.ID, "O", 20, 50)

	updated, err := store.UpdateCurrentPrice(p.ID, "ko", 110)
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
	if updated != 2 {
		t.Errorf("expected 2 rows updated, got %d", updated)
	}

	positions, _ := store.Positions(p.ID)
	for _, pos := range positions {
		if pos.Ticker == "KO" && (pos.CurrentPrice == nil || *pos.CurrentPrice != 110) {
			t.Errorf("position %d missing refreshed price", pos.ID)
		}
		if pos.Ticker == "O" && pos.CurrentPrice != nil {
			t.Error("other tickers must be untouched")
		}
	}
}

func fptr(v float64) *float64 { return &v }
