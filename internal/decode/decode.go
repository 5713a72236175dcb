// Package decode turns a delimited-text, spreadsheet, or zip-archived input
// file into an ordered stream of row records keyed by header name, per the
// input contract the normalizer and staging store depend on.
package decode

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Row is one data row (0-based, header row excluded) decoded from a source
// file. Cells preserve the source's dynamic type: nil, string, float64,
// bool, or time.Time — the same "untyped map keyed by header name" contract
// process-dm-products.Row uses for a JSON-lines source, generalized across
// CSV, XLSX, and ZIP-wrapped inputs.
type Row struct {
	Index int
	Cells map[string]any
}

// Options bounds decoding: the declared extension used for format dispatch,
// and a scratch directory zip decoding may extract into.
type Options struct {
	DeclaredName string
	ScratchDir   string
}

var supportedArchiveExts = map[string]int{
	".csv":  0,
	".xlsx": 1,
	".xls":  1,
}

// Stream decodes path per opts.DeclaredName's extension and sends rows to
// the returned channel in source order. Both channels are closed when
// decoding completes; callers must drain rowCh or the goroutine leaks.
func Stream(ctx context.Context, path string, opts Options) (<-chan Row, <-chan error) {
	ext := strings.ToLower(filepath.Ext(opts.DeclaredName))
	switch ext {
	case ".csv":
		return streamCSV(ctx, path)
	case ".xlsx", ".xls":
		return streamXLSX(ctx, path)
	case ".zip":
		return streamZip(ctx, path, opts.ScratchDir)
	default:
		rowCh := make(chan Row)
		errCh := make(chan error, 1)
		close(rowCh)
		errCh <- eris.Errorf("decode: unsupported declared extension %q", ext)
		close(errCh)
		return rowCh, errCh
	}
}

// streamZip opens path as a zip archive, picks the first supported entry
// per the preference order (CSV, then lexicographic), extracts it to a
// scratch file, and recurses into Stream. Directory entries, "__MACOSX"
// entries, and dotfiles are ignored.
func streamZip(ctx context.Context, path, scratchDir string) (<-chan Row, <-chan error) {
	rowCh := make(chan Row)
	errCh := make(chan error, 1)

	entryPath, cleanup, err := extractFirstSupportedEntry(path, scratchDir)
	if err != nil {
		close(rowCh)
		errCh <- err
		close(errCh)
		return rowCh, errCh
	}

	innerRowCh, innerErrCh := Stream(ctx, entryPath, Options{DeclaredName: entryPath, ScratchDir: scratchDir})

	go func() {
		defer close(rowCh)
		defer close(errCh)
		defer cleanup()

		for {
			select {
			case row, ok := <-innerRowCh:
				if !ok {
					innerRowCh = nil
				} else {
					select {
					case rowCh <- row:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "decode: context cancelled")
						return
					}
				}
			case err, ok := <-innerErrCh:
				if ok && err != nil {
					errCh <- err
					return
				}
				innerErrCh = nil
			}
			if innerRowCh == nil && innerErrCh == nil {
				return
			}
		}
	}()

	return rowCh, errCh
}

type zipEntry struct {
	name string
	ext  string
}

func chooseArchiveEntry(names []string) (string, error) {
	var candidates []zipEntry
	for _, n := range names {
		base := filepath.Base(n)
		if base == "" || strings.HasPrefix(base, ".") {
			continue
		}
		if strings.Contains(n, "__MACOSX") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(base))
		if _, ok := supportedArchiveExts[ext]; !ok {
			continue
		}
		candidates = append(candidates, zipEntry{name: n, ext: ext})
	}
	if len(candidates) == 0 {
		return "", eris.New("decode: zip archive has no .csv, .xlsx, or .xls entry")
	}
	sort.Slice(candidates, func(i, j int) bool {
		pi, pj := supportedArchiveExts[candidates[i].ext], supportedArchiveExts[candidates[j].ext]
		if pi != pj {
			return pi < pj
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0].name, nil
}

func mkScratchFile(scratchDir, name string) (string, error) {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return "", eris.Wrap(err, "decode: create scratch dir")
	}
	return filepath.Join(scratchDir, filepath.Base(name)), nil
}
