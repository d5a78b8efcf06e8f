// Package importer reads and writes physical-count (opname) spreadsheets.
//
// The export lists every product with its system stock; the counter fills
// in the counted columns and the import applies one opname per filled row.
package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/inventory"
	"stockcore/internal/domain/product"
	"stockcore/pkg/logger"
)

// Sheet columns, 1-based.
const (
	colProductID = iota + 1
	colName
	colCategory
	colUnit
	colSystemStock
	colSystemContent
	colCountedStock
	colCountedContent
)

var header = []any{
	"product_id", "Nama", "Kategori", "Satuan",
	"Stok sistem", "Isi sistem", "Stok hitung", "Isi hitung",
}

// Reason recorded on opname moves created from a sheet.
const Reason = "Opname (impor)"

// CountRow is one filled row of a count sheet.
type CountRow struct {
	Line           int
	ProductID      id.ID
	Name           string
	Counted        int64
	CountedContent *types.Money
}

// RowError reports a row that could not be parsed or applied.
type RowError struct {
	Line      int    `json:"line"`
	ProductID string `json:"productId,omitempty"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
}

// Report summarizes an import.
type Report struct {
	Applied int        `json:"applied"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

// WriteCountSheet writes products as a count sheet to w.
func WriteCountSheet(w io.Writer, products []*product.Product) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := []any{
			p.ID.String(), p.Name, p.Category, string(p.MeasureUnit),
			p.Stock, "", "", "",
		}
		if p.HasMeasure {
			row[colSystemContent-1] = p.StockContent.String()
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ParseCountSheet reads the active sheet of r. Rows with an empty counted
// stock are skipped; malformed rows are reported and not returned.
func ParseCountSheet(r io.Reader) ([]CountRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperror.NewValidation("cannot read spreadsheet (damaged or not .xlsx)").WithCause(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, apperror.NewValidation("spreadsheet has no product rows")
	}
	if len(rows[0]) < colCountedStock {
		return nil, nil, apperror.NewValidation(
			fmt.Sprintf("unexpected sheet layout: need at least %d columns", colCountedStock))
	}

	var (
		out  []CountRow
		errs []RowError
	)
	for i := 1; i < len(rows); i++ {
		line := i + 1
		row := rows[i]
		cell := func(col int) string {
			if col-1 < len(row) {
				return strings.TrimSpace(row[col-1])
			}
			return ""
		}

		rawID, rawCount := cell(colProductID), cell(colCountedStock)
		if rawID == "" || rawCount == "" {
			continue
		}

		pid, err := id.Parse(rawID)
		if err != nil {
			errs = append(errs, RowError{Line: line, ProductID: rawID, Message: "invalid product_id"})
			continue
		}
		counted, err := strconv.ParseInt(rawCount, 10, 64)
		if err != nil || counted < 0 {
			errs = append(errs, RowError{Line: line, ProductID: rawID,
				Message: fmt.Sprintf("counted stock must be a whole number >= 0 (got %q)", rawCount)})
			continue
		}

		cr := CountRow{Line: line, ProductID: pid, Name: cell(colName), Counted: counted}
		if rawContent := cell(colCountedContent); rawContent != "" {
			v, err := types.NewMoneyFromString(strings.ReplaceAll(rawContent, ",", "."))
			if err != nil || v.IsNegative() {
				errs = append(errs, RowError{Line: line, ProductID: rawID,
					Message: fmt.Sprintf("counted content must be a number >= 0 (got %q)", rawContent)})
				continue
			}
			cr.CountedContent = &v
		}
		out = append(out, cr)
	}
	return out, errs, nil
}

// Opnamer is the part of the inventory service the importer drives.
type Opnamer interface {
	Opname(ctx context.Context, cmd inventory.OpnameCommand) (*adjustment.StockAdjustment, error)
}

// Importer applies count sheets.
type Importer struct {
	svc Opnamer
}

// New creates an importer.
func New(svc Opnamer) *Importer {
	return &Importer{svc: svc}
}

// Import parses r and applies one opname per row. Each row commits on its
// own; a failing row is reported and the rest continue.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Report, error) {
	rows, parseErrs, err := ParseCountSheet(r)
	if err != nil {
		return nil, err
	}

	report := &Report{Errors: parseErrs}
	report.Skipped = len(parseErrs)

	for _, row := range rows {
		_, err := im.svc.Opname(ctx, inventory.OpnameCommand{
			ProductID:     row.ProductID,
			Target:        row.Counted,
			TargetContent: row.CountedContent,
			Reason:        Reason,
		})
		if err != nil {
			re := RowError{Line: row.Line, ProductID: row.ProductID.String(), Message: err.Error()}
			if appErr, ok := apperror.AsAppError(err); ok {
				re.Code = appErr.Code
				re.Message = appErr.Message
				// privilege and org problems fail every row the same way
				if appErr.Code == apperror.CodeUnauthorized || appErr.Code == apperror.CodeForbidden {
					return nil, err
				}
			}
			report.Errors = append(report.Errors, re)
			report.Skipped++
			continue
		}
		report.Applied++
	}

	logger.Info(ctx, "opname sheet imported",
		"applied", report.Applied,
		"skipped", report.Skipped,
	)
	return report, nil
}
