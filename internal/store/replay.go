package store

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/engine"
)

// Divergence is one position where a replayed trace differs from the
// stored one.
type Divergence struct {
	Seq      int64  `json:"seq"`
	Stored   string `json:"stored"`
	Replayed string `json:"replayed"`
}

func (d Divergence) String() string {
	return fmt.Sprintf("seq %d: stored %s, replayed %s", d.Seq, d.Stored, d.Replayed)
}

// describeFiring renders the parts of a firing that must repeat across
// runs. Node ids are process-unique and are left out.
func describeFiring(f *engine.Firing) string {
	if f == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s(%s->%s) pass %d", f.Rule, f.OpBefore, f.OpAfter, f.Pass)
}

// CompareFirings lines up two firing sequences by position and reports
// every position where they differ. Equal sequences yield an empty slice.
func CompareFirings(stored, replayed []engine.Firing) []Divergence {
	divs := []Divergence{}
	n := max(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		var s, r *engine.Firing
		if i < len(stored) {
			s = &stored[i]
		}
		if i < len(replayed) {
			r = &replayed[i]
		}
		ds, dr := describeFiring(s), describeFiring(r)
		if ds != dr {
			divs = append(divs, Divergence{Seq: int64(i + 1), Stored: ds, Replayed: dr})
		}
	}
	return divs
}

// VerifyReplay compares a fresh trace of the same tree and rules against a
// stored run. A deterministic rule set over the same input reproduces the
// stored firings exactly.
func (s *Store) VerifyReplay(ctx context.Context, runID string, replayed *engine.Trace) ([]Divergence, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, errors.Wrap(err, "verify replay")
	}
	stored, err := s.ReadFirings(ctx, runID)
	if err != nil {
		return nil, errors.Wrap(err, "verify replay")
	}
	var fresh []engine.Firing
	if replayed != nil {
		fresh = replayed.Firings
	}
	return CompareFirings(stored, fresh), nil
}
