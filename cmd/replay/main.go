// Command replay runs a signal through the four confirmation stages
// against simulated candles, printing each stage's checks. Useful for
// inspecting how the staged quality bars behave without waiting out
// the real delays.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"market-opportunity-scanner/internal/analysis"
	"market-opportunity-scanner/internal/confirmation"
	"market-opportunity-scanner/internal/exchange"
	"market-opportunity-scanner/internal/logging"
)

func main() {
	symbol := flag.String("symbol", "BTCUSDT", "symbol to replay")
	direction := flag.String("direction", analysis.DirectionBullish, "signal direction (BULLISH or BEARISH)")
	flag.Parse()

	logger := logging.New(logging.Config{Level: "debug"})
	source := exchange.NewMockClient()

	price, err := source.GetCurrentPrice(*symbol)
	if err != nil {
		fmt.Fprintln(os.Stderr, "price lookup failed:", err)
		os.Exit(1)
	}

	// Backdate the signal so every stage delay has already elapsed
	signalTime := time.Now().Add(-30 * time.Minute)
	record := confirmation.NewRecord(confirmation.Signal{
		Symbol:    *symbol,
		Direction: *direction,
		Price:     price,
		Time:      signalTime,
		Score:     75,
	})

	engine := confirmation.NewEngine(source, "5m", 100, logger)
	if _, err := engine.Check(record); err != nil {
		fmt.Fprintln(os.Stderr, "confirmation check failed:", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(out))
}
