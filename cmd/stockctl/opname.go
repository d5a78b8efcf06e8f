package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stockcore/internal/infrastructure/importer"
)

var opnameCmd = &cobra.Command{
	Use:   "opname",
	Short: "Physical count sheets",
}

var opnameExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a count sheet listing every product",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := operatorContext(cmd)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		products, err := a.Products.All(ctx)
		if err != nil {
			return err
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := importer.WriteCountSheet(f, products); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Infow("count sheet written", "file", out, "products", len(products))
		return nil
	},
}

var opnameImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Apply a filled count sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := operatorContext(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := importer.New(a.Inventory).Import(ctx, f)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	addOrgFlags(opnameExportCmd)
	opnameExportCmd.Flags().String("out", "opname.xlsx", "output file")

	addOrgFlags(opnameImportCmd)
	opnameImportCmd.Flags().String("file", "", "filled count sheet (.xlsx)")
	_ = opnameImportCmd.MarkFlagRequired("file")

	opnameCmd.AddCommand(opnameExportCmd, opnameImportCmd)
	rootCmd.AddCommand(opnameCmd)
}
