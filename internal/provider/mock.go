package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"FinSentinel/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
type MockProvider struct {
	ProviderName string
	SourceLabel  model.PriceSource
	Price        decimal.Decimal
	Err          error
	Calls        int
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Source() model.PriceSource {
	if m.SourceLabel == "" {
		return model.SourcePrimary
	}
	return m.SourceLabel
}

func (m *MockProvider) Fetch(_ context.Context, symbol string) (model.Quote, error) {
	m.Calls++
	if m.Err != nil {
		return model.Quote{}, m.Err
	}
	return model.Quote{Symbol: symbol, Price: m.Price, AsOf: time.Now()}, nil
}

// MockBarSource serves a fixed set of closes for every symbol.
type MockBarSource struct {
	Closes map[string][]model.Close
	Err    error
}

func (m *MockBarSource) DailyCloses(_ context.Context, symbol string, _ int) ([]model.Close, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Closes[symbol], nil
}
