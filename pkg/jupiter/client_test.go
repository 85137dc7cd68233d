package jupiter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testMint = "XsDoVfqeBukxuZHWhdvWHBhgEHjGNst4MLodqsJHzoB"

// go test -v --run TestGetPrice
func TestGetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "k1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/price/v3" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"` + testMint + `": {"usdPrice": 249.87, "blockId": 1, "decimals": 8}}`))
	}))
	defer srv.Close()

	entry, err := NewClient(srv.URL, "k1", 5*time.Second).GetPrice(context.Background(), testMint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.USDPrice != 249.87 {
		t.Errorf("usdPrice: got %v", entry.USDPrice)
	}

	_, err = NewClient(srv.URL, "", 5*time.Second).GetPrice(context.Background(), testMint)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("without key: got %v, want ErrUnauthorized", err)
	}

	_, err = NewClient(srv.URL, "k1", 5*time.Second).GetPrice(context.Background(), "other")
	if !errors.Is(err, ErrNoPrice) {
		t.Errorf("unknown mint: got %v, want ErrNoPrice", err)
	}
}

// go test -v --run TestGetQuote
func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("amount") != "100000000" || q.Get("slippageBps") != "50" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"inAmount": "100000000", "outAmount": "250500000", "routePlan": [
			{"swapInfo": {"label": "Meteora DLMM"}, "percent": 60},
			{"swapInfo": {"label": "Raydium"}, "percent": 40},
			{"swapInfo": {"label": "Meteora DLMM"}, "percent": 100}
		]}`))
	}))
	defer srv.Close()

	quote, err := NewClient(srv.URL, "", 5*time.Second).GetQuote(context.Background(), QuoteRequest{
		InputMint:   testMint,
		OutputMint:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:      "100000000",
		SlippageBps: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.OutAmount != "250500000" {
		t.Errorf("outAmount: got %s", quote.OutAmount)
	}
	labels := quote.Labels()
	if len(labels) != 2 || labels[0] != "Meteora DLMM" || labels[1] != "Raydium" {
		t.Errorf("labels: got %v", labels)
	}
}

// go test -v --run TestGetQuoteEmpty
func TestGetQuoteEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routePlan": []}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 5*time.Second).GetQuote(context.Background(), QuoteRequest{Amount: "1"})
	if !errors.Is(err, ErrNoQuote) {
		t.Errorf("got %v, want ErrNoQuote", err)
	}
}
