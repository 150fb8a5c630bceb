package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"FinSentinel/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooClient talks to the Yahoo Finance public chart API. The intraday
// and last-close providers and the daily bar source all share it.
type YahooClient struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooClient creates a chart client with optional proxy support.
func NewYahooClient(proxyURL string) *YahooClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooClient{
		BaseURL: yahooChartURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"BONDS": "BND",
		},
	}
}

func (c *YahooClient) yahooSymbol(symbol string) string {
	if mapped, ok := c.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

type chartBar struct {
	time     time.Time
	close    float64
	adjClose float64
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol, interval, rng string) ([]chartBar, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s",
		c.BaseURL, url.PathEscape(c.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data")
	}
	quote := result.Indicators.Quote[0]
	var adj []interface{}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]chartBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		cl := toFloat(quote.Close[i])
		if cl == 0 {
			continue // skip null bars (holidays etc.)
		}
		bar := chartBar{time: time.Unix(ts, 0), close: cl, adjClose: cl}
		if i < len(adj) {
			if a := toFloat(adj[i]); a != 0 {
				bar.adjClose = a
			}
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].time.Before(bars[j].time) })
	return bars, nil
}

// YahooIntraday resolves the latest minute-bar close of the current
// session. Secondary provider, tried after the primary fails.
type YahooIntraday struct {
	*YahooClient
}

func (p *YahooIntraday) Name() string              { return "yahoo_intraday" }
func (p *YahooIntraday) Source() model.PriceSource { return model.SourceSecondaryIntraday }

func (p *YahooIntraday) Fetch(ctx context.Context, symbol string) (model.Quote, error) {
	bars, err := p.fetchChart(ctx, symbol, "1m", "1d")
	if err != nil {
		return model.Quote{}, err
	}
	if len(bars) == 0 {
		// Halted or pre-open tickers return timestamps with all-null closes.
		return model.Quote{}, fmt.Errorf("yahoo: no usable bars for %s", symbol)
	}
	last := bars[len(bars)-1]
	return model.Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(last.close),
		AsOf:   last.time,
	}, nil
}

// YahooClose resolves the most recent daily close. Last live provider
// in the chain, for symbols with no intraday session at all.
type YahooClose struct {
	*YahooClient
}

func (p *YahooClose) Name() string              { return "yahoo_close" }
func (p *YahooClose) Source() model.PriceSource { return model.SourceSecondaryClose }

func (p *YahooClose) Fetch(ctx context.Context, symbol string) (model.Quote, error) {
	bars, err := p.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return model.Quote{}, err
	}
	if len(bars) == 0 {
		return model.Quote{}, fmt.Errorf("yahoo: no usable bars for %s", symbol)
	}
	last := bars[len(bars)-1]
	return model.Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(last.close),
		AsOf:   last.time,
	}, nil
}

// rangeForMonths maps a lookback in months onto the closest chart API
// range parameter.
func rangeForMonths(months int) string {
	switch {
	case months <= 1:
		return "1mo"
	case months <= 3:
		return "3mo"
	case months <= 6:
		return "6mo"
	case months <= 12:
		return "1y"
	default:
		return "2y"
	}
}

// DailyCloses returns adjusted daily closes for the lookback window,
// oldest first. All closes share the ADJUSTED_CLOSE basis.
func (c *YahooClient) DailyCloses(ctx context.Context, symbol string, lookbackMonths int) ([]model.Close, error) {
	bars, err := c.fetchChart(ctx, symbol, "1d", rangeForMonths(lookbackMonths))
	if err != nil {
		return nil, err
	}
	closes := make([]model.Close, len(bars))
	for i, b := range bars {
		closes[i] = model.Close{Time: b.time, Price: b.adjClose, Basis: model.BasisAdjustedClose}
	}
	return closes, nil
}
