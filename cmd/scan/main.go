package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"xscreener/config"
	"xscreener/internal/aggregator"
	"xscreener/internal/arbitrage"
	"xscreener/internal/batch"
	"xscreener/internal/quote"
	"xscreener/internal/venue"
	"xscreener/logger"

	"go.uber.org/zap"
)

type report struct {
	Comparisons   []quote.Comparison  `json:"comparisons"`
	Opportunities []quote.Opportunity `json:"opportunities"`
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	symbols := flag.String("symbols", "", "comma separated instrument keys (default: all configured)")
	top := flag.Int("top", 0, "number of opportunities to print (default: scanner.top_n)")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	cfg.ResolveSecrets()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := aggregator.New(cfg.Instruments, venue.FromConfig(cfg.Venues, log), cfg.Scanner.MinSpreadPercent, log)
	keys := agg.Keys()
	if *symbols != "" {
		keys = splitKeys(*symbols)
	}

	comparisons, err := batch.NewOrchestrator(agg, cfg.Scanner.InstrumentDelay, log).FetchAll(ctx, keys)
	if err != nil {
		log.Error("scan incomplete", zap.Error(err))
	}

	n := *top
	if n <= 0 {
		n = cfg.Scanner.TopN
	}
	rep := report{Comparisons: comparisons, Opportunities: arbitrage.SelectBest(comparisons, n)}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatal("failed to encode report", zap.Error(err))
		}
		return
	}
	printReport(rep)
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func printReport(rep report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "SYMBOL\tQUOTES\tMIN\tMAX\tAVG\tSPREAD%")
	for _, c := range rep.Comparisons {
		s, ok := arbitrage.Statistics(c)
		if !ok {
			fmt.Fprintf(w, "%s\t0\t-\t-\t-\t-\n", c.Symbol)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.2f\n", c.Symbol, s.Count, s.Min, s.Max, s.Avg, s.SpreadPercent)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SYMBOL\tBUY\tSELL\tBUY PRICE\tSELL PRICE\tSPREAD%")
	for _, o := range rep.Opportunities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%.2f\n", o.Symbol, o.BuyFrom, o.SellTo, o.BuyPrice, o.SellPrice, o.SpreadPercent)
	}
	w.Flush()
}
