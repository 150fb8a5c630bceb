package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func alphaVantageWith(t *testing.T, handler http.HandlerFunc) *AlphaVantage {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &AlphaVantage{
		APIKey:  "demo",
		BaseURL: srv.URL,
		Client:  srv.Client(),
	}
}

func TestAlphaVantage_Fetch(t *testing.T) {
	p := alphaVantageWith(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "187.4400"}}`))
	})

	q, err := p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", q.Symbol)
	require.Equal(t, "187.44", q.Price.String())
	require.False(t, q.AsOf.IsZero())
}

func TestAlphaVantage_Throttled(t *testing.T) {
	p := alphaVantageWith(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	})

	_, err := p.Fetch(context.Background(), "AAPL")
	require.ErrorContains(t, err, "throttled")
}

func TestAlphaVantage_NoPrice(t *testing.T) {
	p := alphaVantageWith(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})

	_, err := p.Fetch(context.Background(), "ZZZZ")
	require.ErrorContains(t, err, "no price")
}

func TestAlphaVantage_NoAPIKey(t *testing.T) {
	p := &AlphaVantage{BaseURL: "http://unused.invalid"}
	_, err := p.Fetch(context.Background(), "AAPL")
	require.ErrorContains(t, err, "no api key")
}

func TestAlphaVantage_ServerError(t *testing.T) {
	p := alphaVantageWith(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.Fetch(context.Background(), "AAPL")
	require.ErrorContains(t, err, "status 500")
}
