package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"FinSentinel/internal/model"
)

const alphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantage is the primary real-time quote provider.
type AlphaVantage struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewAlphaVantage creates the provider with optional proxy support.
func NewAlphaVantage(apiKey, proxyURL string) *AlphaVantage {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlphaVantage{
		APIKey:  apiKey,
		BaseURL: alphaVantageURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (p *AlphaVantage) Name() string              { return "alphavantage" }
func (p *AlphaVantage) Source() model.PriceSource { return model.SourcePrimary }

// globalQuote is the GLOBAL_QUOTE response envelope. Alpha Vantage
// returns prices as strings under numbered keys.
type globalQuote struct {
	Quote struct {
		Price string `json:"05. price"`
	} `json:"Global Quote"`
	Note string `json:"Note"`
}

func (p *AlphaVantage) Fetch(ctx context.Context, symbol string) (model.Quote, error) {
	if p.APIKey == "" {
		return model.Quote{}, fmt.Errorf("alphavantage: no api key configured")
	}

	endpoint := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		p.BaseURL, url.QueryEscape(symbol), url.QueryEscape(p.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Quote{}, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Quote{}, fmt.Errorf("alphavantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("alphavantage: status %d", resp.StatusCode)
	}

	var gq globalQuote
	if err := json.Unmarshal(body, &gq); err != nil {
		return model.Quote{}, fmt.Errorf("alphavantage decode: %w", err)
	}
	if gq.Note != "" {
		// Rate-limit responses come back as 200 with a Note payload.
		return model.Quote{}, fmt.Errorf("alphavantage: throttled")
	}
	if gq.Quote.Price == "" {
		return model.Quote{}, fmt.Errorf("alphavantage: no price for %s", symbol)
	}

	price, err := decimal.NewFromString(gq.Quote.Price)
	if err != nil {
		return model.Quote{}, fmt.Errorf("alphavantage: bad price %q: %w", gq.Quote.Price, err)
	}
	return model.Quote{Symbol: symbol, Price: price, AsOf: time.Now()}, nil
}
