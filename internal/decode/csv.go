package decode

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// streamCSV opens path, treats the first row as the header, and sends one
// Row per subsequent record on the returned channel. A field that parses
// cleanly as a float64 is kept as a string — CSV carries no type tag, so
// numeric-looking text is left for the normalizer to interpret rather than
// guessed at here; every cell is either a non-empty string or nil.
func streamCSV(ctx context.Context, path string) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	f, err := os.Open(path)
	if err != nil {
		close(rowCh)
		errCh <- eris.Wrap(err, "decode: open csv file")
		close(errCh)
		return rowCh, errCh
	}

	go func() {
		defer close(rowCh)
		defer close(errCh)
		defer f.Close() //nolint:errcheck

		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		header, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			errCh <- eris.Wrap(err, "decode: read csv header")
			return
		}
		header = trimBOM(header)

		index := 0
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "decode: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "decode: read csv row")
				return
			}

			row := Row{Index: index, Cells: recordToCells(header, record)}
			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "decode: context cancelled")
				return
			}
			index++
		}
	}()

	return rowCh, errCh
}

func recordToCells(header, record []string) map[string]any {
	cells := make(map[string]any, len(header))
	for i, key := range header {
		if key == "" || i >= len(record) {
			continue
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			cells[key] = nil
			continue
		}
		cells[key] = v
	}
	return cells
}

// trimBOM strips a UTF-8 byte order mark from the first header field, which
// spreadsheet-exported CSVs commonly prepend.
func trimBOM(header []string) []string {
	if len(header) == 0 {
		return header
	}
	header[0] = strings.TrimPrefix(header[0], "\xef\xbb\xbf")
	return header
}
