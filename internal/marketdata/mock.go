package marketdata

import (
	"errors"

	"DivTracker/internal/model"
)

var errMockEmpty = errors.New("mock: no data configured")

// MockClient returns controllable fixed data for development and testing.
type MockClient struct {
	Provider model.Provider

	Quote       *model.Quote
	QuoteErr    error
	Funds       *Fundamentals
	FundsErr    error
	Dividend    *model.DividendRecord
	DividendErr error

	QuoteCalls    int
	FundsCalls    int
	DividendCalls int
}

func (m *MockClient) Name() model.Provider { return m.Provider }

func (m *MockClient) FetchQuote(_ string) (*model.Quote, error) {
	m.QuoteCalls++
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	if m.Quote == nil {
		return nil, errMockEmpty
	}
	q := *m.Quote
	return &q, nil
}

func (m *MockClient) FetchFundamentals(_ string) (*Fundamentals, error) {
	m.FundsCalls++
	if m.FundsErr != nil {
		return nil, m.FundsErr
	}
	if m.Funds == nil {
		return nil, errMockEmpty
	}
	f := *m.Funds
	return &f, nil
}

func (m *MockClient) FetchDividend(_ string) (*model.DividendRecord, error) {
	m.DividendCalls++
	if m.DividendErr != nil {
		return nil, m.DividendErr
	}
	if m.Dividend == nil {
		return nil, errMockEmpty
	}
	d := *m.Dividend
	return &d, nil
}
