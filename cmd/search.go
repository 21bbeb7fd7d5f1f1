package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"sjsage522/pricescout/internal/product"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one live search and print the normalized products",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("category", "", "Category hint")
	searchCmd.Flags().String("store", "", "Store to search (default from $DEFAULT_STORE)")
	searchCmd.Flags().String("format", "json", "Output format: json, table")
	searchCmd.Flags().Bool("no-retry", false, "Do not retry the sequence when it comes back empty")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	storeName, _ := cmd.Flags().GetString("store")
	format, _ := cmd.Flags().GetString("format")
	noRetry, _ := cmd.Flags().GetBool("no-retry")

	ctx, stop := signalContext()
	defer stop()

	deps, err := buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	products, err := deps.Searcher.Search(ctx, product.Request{
		Query:        strings.Join(args, " "),
		Category:     category,
		Store:        storeName,
		RetryOnEmpty: !noRetry,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch format {
	case "table":
		printProductsTable(products)
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(products)
	}
	return nil
}

func printProductsTable(products []product.Product) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRICE\tRATING\tREVIEWS\tNAME")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, formatFloat(p.Price, "%.2f"), formatFloat(p.Rating, "%.1f"), formatInt(p.ReviewCount), truncate(p.Name, 60))
	}
	w.Flush()
	fmt.Printf("\n%d products\n", len(products))
}

func formatFloat(v *float64, layout string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(layout, *v)
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
