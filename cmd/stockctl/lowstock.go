package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var lowStockCmd = &cobra.Command{
	Use:   "lowstock",
	Short: "List products at or below their minimum stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := operatorContext(cmd)
		if err != nil {
			return err
		}
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		products, err := a.Products.LowStock(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTOCK\tMIN\tCONTENT")
		for _, p := range products {
			content := "-"
			if p.HasMeasure {
				content = p.StockContent.String() + " " + string(p.MeasureUnit)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", p.ID, p.Name, p.Stock, p.MinStock, content)
		}
		return w.Flush()
	},
}

func init() {
	addOrgFlags(lowStockCmd)
	rootCmd.AddCommand(lowStockCmd)
}
