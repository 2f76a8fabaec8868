package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"DivTracker/internal/analytics"
	"DivTracker/internal/model"
	"DivTracker/internal/portfolio"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// storeError maps store failures onto HTTP status codes.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, portfolio.ErrPortfolioNotFound), errors.Is(err, portfolio.ErrPositionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	quote := s.cache.GetQuote(symbol)
	if quote == nil {
		writeError(w, http.StatusNotFound, "no quote available for "+strings.ToUpper(symbol))
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("symbols"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			symbols = append(symbols, part)
		}
	}
	writeJSON(w, http.StatusOK, s.cache.GetQuotes(symbols))
}

func (s *Server) handleDividend(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	div := s.cache.GetDividend(symbol)
	if div == nil {
		writeError(w, http.StatusNotFound, "no dividend data for "+strings.ToUpper(symbol))
		return
	}
	writeJSON(w, http.StatusOK, div)
}

func (s *Server) handleCached(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.cache.FreshQuotes(s.freshWindow)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if quotes == nil {
		quotes = []model.CachedQuote{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleRateLimits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.limiter.Status())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	quote := s.cache.ForceRefresh(symbol)
	if quote == nil {
		writeError(w, http.StatusBadGateway, "all providers failed for "+strings.ToUpper(symbol))
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	res, err := s.cache.CleanupOlderThan(s.retention)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	list, err := s.portfolios.Store().ListPortfolios()
	if err != nil {
		storeError(w, err)
		return
	}
	if list == nil {
		list = []model.Portfolio{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	p, err := s.portfolios.Store().CreatePortfolio(req.Name)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleMainPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.portfolios.Store().MainPortfolio()
	if err != nil {
		storeError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "no main portfolio")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	p, err := s.portfolios.Store().GetPortfolio(id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	var req struct {
		Name                *string  `json:"name"`
		MonthlyDividendGoal *float64 `json:"monthlyDividendGoal"`
		ClearGoal           bool     `json:"clearGoal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var p *model.Portfolio
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
		if p, err = s.portfolios.Store().RenamePortfolio(id, name); err != nil {
			storeError(w, err)
			return
		}
	}
	if req.ClearGoal {
		if p, err = s.portfolios.Store().SetMonthlyGoal(id, nil); err != nil {
			storeError(w, err)
			return
		}
	} else if req.MonthlyDividendGoal != nil {
		if p, err = s.portfolios.Store().SetMonthlyGoal(id, req.MonthlyDividendGoal); err != nil {
			if errors.Is(err, portfolio.ErrPortfolioNotFound) {
				storeError(w, err)
			} else {
				writeError(w, http.StatusBadRequest, err.Error())
			}
			return
		}
	}
	if p == nil {
		if p, err = s.portfolios.Store().GetPortfolio(id); err != nil {
			storeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	if err := s.portfolios.Store().DeletePortfolio(id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetMain(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	p, err := s.portfolios.Store().SetMain(id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	summary, err := s.portfolios.Summarize(id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	result, err := s.portfolios.RefreshPrices(id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	candidates, err := s.cache.FreshQuotes(s.freshWindow)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	suggestions, err := s.portfolios.Suggestions(id, candidates)
	if err != nil {
		storeError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []analytics.Suggestion{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	if _, err := s.portfolios.Store().GetPortfolio(id); err != nil {
		storeError(w, err)
		return
	}
	positions, err := s.portfolios.Store().Positions(id)
	if err != nil {
		storeError(w, err)
		return
	}
	if positions == nil {
		positions = []model.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	var pos model.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pos.PortfolioID = id
	created, err := s.portfolios.Store().CreatePosition(&pos)
	if err != nil {
		if errors.Is(err, portfolio.ErrPortfolioNotFound) {
			storeError(w, err)
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}
	var pos model.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pos.ID = id
	updated, err := s.portfolios.Store().UpdatePosition(&pos)
	if err != nil {
		if errors.Is(err, portfolio.ErrPositionNotFound) {
			storeError(w, err)
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}
	if err := s.portfolios.Store().DeletePosition(id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var in analytics.ProjectionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Frequency == "" {
		in.Frequency = analytics.DepositMonthly
	}
	result, err := analytics.Project(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
