package kyberswap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// go test -v --run TestGetRoute
func TestGetRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/api/v1/routes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("amountIn") != "1000000000000000000" {
			t.Errorf("amountIn: got %s", r.URL.Query().Get("amountIn"))
		}
		w.Write([]byte(`{"code": 0, "message": "successfully", "data": {"routeSummary": {
			"amountIn": "1000000000000000000", "amountOut": "250120000", "amountOutUsd": "250.09",
			"route": [[{"exchange": "uniswap-v3", "poolType": "uniswap-v3"}],
			          [{"exchange": "kyberswap-limit-order", "poolType": "rfq"}]]
		}}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "1", 5*time.Second)
	summary, err := client.GetRoute(context.Background(), RouteRequest{
		TokenIn:  "0x8ad3c73f833d3f9a523ab01476625f269aeb7cf0",
		TokenOut: "0xdac17f958d2ee523a2206206994597c13d831ec7",
		AmountIn: "1000000000000000000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AmountOut != "250120000" || summary.AmountOutUsd != "250.09" {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if !summary.HasRFQ() {
		t.Error("expected RFQ hop to be detected")
	}
}

// go test -v --run TestGetRouteErrors
func TestGetRouteErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"non-zero code": {http.StatusOK, `{"code": 4008, "message": "route not found"}`},
		"no data":       {http.StatusOK, `{"code": 0, "message": "ok"}`},
		"http 400":      {http.StatusBadRequest, `{"code": 4001}`},
		"malformed":     {http.StatusOK, `<html>`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "1", 5*time.Second)
			if _, err := client.GetRoute(context.Background(), RouteRequest{TokenIn: "a", TokenOut: "b", AmountIn: "1"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// go test -v --run TestHasRFQ
func TestHasRFQ(t *testing.T) {
	plain := RouteSummary{Route: [][]Hop{{{Exchange: "curve", PoolType: "curve-stable"}}}}
	if plain.HasRFQ() {
		t.Error("plain route flagged as RFQ")
	}
	byName := RouteSummary{Route: [][]Hop{{{Exchange: "hashflow-RFQ", PoolType: "hashflow"}}}}
	if !byName.HasRFQ() {
		t.Error("exchange name containing rfq not flagged")
	}
}
