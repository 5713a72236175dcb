package reconcile

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// jobScratch is the job-scoped scratch directory spec.md §5 requires:
// keyed by a UUID, living under a well-known root, and guaranteed to be
// removed on every exit path.
type jobScratch struct {
	jobID string
	dir   string
}

// newJobScratch mints a fresh UUID and creates its scratch directory
// under root.
func newJobScratch(root string) (*jobScratch, error) {
	id := uuid.NewString()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "reconcile: create scratch directory")
	}
	return &jobScratch{jobID: id, dir: dir}, nil
}

func (s *jobScratch) path(name string) string {
	return filepath.Join(s.dir, name)
}

// cleanup removes every scratch artifact for this job. Callers must run
// this on every exit path, success or failure; a cleanup failure must
// never mask an earlier error, so this returns its own error for the
// caller to log rather than to prefer over the original.
func (s *jobScratch) cleanup() error {
	return eris.Wrap(os.RemoveAll(s.dir), "reconcile: remove scratch directory")
}
