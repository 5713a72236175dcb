package decode

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// extractFirstSupportedEntry opens zipPath, picks the entry Stream should
// recurse into per the archive preference order (CSV first, then
// lexicographic among the rest), and extracts it under scratchDir. The
// returned cleanup removes the extracted file; callers must defer it.
func extractFirstSupportedEntry(zipPath, scratchDir string) (string, func(), error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", func() {}, eris.Wrap(err, "decode: open zip archive")
	}
	defer r.Close() //nolint:errcheck

	names := make([]string, 0, len(r.File))
	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
		byName[f.Name] = f
	}

	chosen, err := chooseArchiveEntry(names)
	if err != nil {
		return "", func() {}, err
	}

	destPath, err := mkScratchFile(scratchDir, chosen)
	if err != nil {
		return "", func() {}, err
	}

	if err := extractZIPEntry(byName[chosen], filepath.Dir(destPath), destPath); err != nil {
		return "", func() {}, err
	}

	cleanup := func() {
		_ = os.Remove(destPath)
	}
	return destPath, cleanup, nil
}

// extractZIPEntry copies f's contents to destPath, refusing to write
// outside destDir (zip slip).
func extractZIPEntry(f *zip.File, destDir, destPath string) error {
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) &&
		filepath.Clean(destPath) != filepath.Clean(destDir) {
		return eris.Errorf("decode: illegal zip entry path %q (zip slip attempt)", f.Name)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return eris.Wrap(err, "decode: create scratch dir")
	}

	rc, err := f.Open()
	if err != nil {
		return eris.Wrap(err, "decode: open zip entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return eris.Wrap(err, "decode: create scratch file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrap(err, "decode: write scratch file")
	}

	return nil
}
