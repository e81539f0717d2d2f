package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamwal/gpwetl/internal/contracts"
)

var symbolsKind string

// symbolsCmd lists the instruments known to the data source.
var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List GPW instruments from the Stooq directory",
	Long: `Scrapes the Stooq instrument directory and prints the discovered
symbols. Falls back to the built-in set when the directory is unreachable.

Example:
  go run ./cmd/gpwetl symbols
  go run ./cmd/gpwetl symbols --kind index`,
	RunE: listSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&symbolsKind, "kind", "stock", "instrument kind (stock|index)")
	rootCmd.AddCommand(symbolsCmd)
}

func listSymbols(cmd *cobra.Command, args []string) error {
	kind := contracts.InstrumentKind(symbolsKind)
	if !kind.Valid() {
		return fmt.Errorf("unknown kind %q, expected stock or index", symbolsKind)
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.stooq.ListSymbols(context.Background(), kind)
	if err != nil {
		a.log.WithError(err).Warn("Directory scrape failed, using built-in symbols")
		for _, s := range defaultUniverse() {
			if s.Kind == kind {
				fmt.Printf("%-10s %s\n", s.Symbol, s.Name)
			}
		}
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%-10s %s\n", e.Symbol, e.Name)
	}
	fmt.Printf("\n%d %s symbols\n", len(entries), kind)
	return nil
}
