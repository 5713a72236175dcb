package decode

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// xlsxOptions configures the XLSX parser. Header row 0 supplies the keys
// for every subsequent Row.Cells map; SheetIndex is ignored when SheetName
// is set.
type xlsxOptions struct {
	SheetIndex int
	SheetName  string
}

// streamXLSX reads the declared sheet and sends one Row per data row
// (header excluded) on the returned channel, closing both channels when
// done. Cell values preserve source type: numeric cells become float64,
// date-formatted numeric cells become time.Time, boolean cells become
// bool, everything else becomes string.
func streamXLSX(ctx context.Context, path string) (<-chan Row, <-chan error) {
	return streamXLSXSheet(ctx, path, xlsxOptions{})
}

func streamXLSXSheet(ctx context.Context, path string, opts xlsxOptions) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		f, err := xlsx.OpenFile(path)
		if err != nil {
			errCh <- eris.Wrap(err, "decode: open xlsx file")
			return
		}

		sheet, err := getSheet(f, opts)
		if err != nil {
			errCh <- err
			return
		}
		if len(sheet.Rows) == 0 {
			return
		}

		header := rowToHeader(sheet.Rows[0])

		for i := 1; i < len(sheet.Rows); i++ {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "decode: context cancelled")
				return
			}

			cells := rowToCells(sheet.Rows[i], header)
			select {
			case rowCh <- Row{Index: i - 1, Cells: cells}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "decode: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func getSheet(f *xlsx.File, opts xlsxOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("decode: xlsx sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("decode: xlsx sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToHeader(row *xlsx.Row) []string {
	header := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		header[j] = cell.String()
	}
	return header
}

// rowToCells maps each cell onto its header key, preserving dynamic type
// where the underlying parser distinguishes one: a numeric cell formatted
// as a date becomes a time.Time, a plain numeric cell becomes a float64, a
// boolean cell becomes a bool, everything else falls back to string.
func rowToCells(row *xlsx.Row, header []string) map[string]any {
	cells := make(map[string]any, len(row.Cells))
	for j, cell := range row.Cells {
		if j >= len(header) || header[j] == "" {
			continue
		}
		cells[header[j]] = cellValue(cell)
	}
	return cells
}

func cellValue(cell *xlsx.Cell) any {
	switch cell.Type() {
	case xlsx.CellTypeDate:
		if t, err := cell.GetTime(false); err == nil {
			return t
		}
		return cell.String()
	case xlsx.CellTypeNumeric:
		if f, err := cell.Float(); err == nil {
			return f
		}
		return cell.String()
	case xlsx.CellTypeBool:
		return cell.Bool()
	case xlsx.CellTypeString, xlsx.CellTypeStringFormula:
		s := cell.String()
		if s == "" {
			return nil
		}
		return s
	default:
		s := cell.String()
		if s == "" {
			return nil
		}
		return s
	}
}
