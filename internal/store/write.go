package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/ir"
)

// Run is the stored summary of one rewrite run.
type Run struct {
	ID                string       `json:"id"`
	Tree              string       `json:"tree"`
	SpecHash          string       `json:"spec_hash"`
	FingerprintBefore string       `json:"fingerprint_before"`
	FingerprintAfter  string       `json:"fingerprint_after"`
	Stats             engine.Stats `json:"stats"`
	EngineVersion     string       `json:"engine_version"`
	IRVersion         string       `json:"ir_version"`

	// The configuration the run was made with, kept so it can be replayed.
	// Empty Rules means every rule of the specs; PassLimit 0 means the
	// engine default.
	Rules     []string `json:"rules,omitempty"`
	PassLimit int      `json:"pass_limit,omitempty"`
	Context   string   `json:"context,omitempty"`
}

// NewRun builds the summary of a finished run of proc over the tree named
// tree. before is the fingerprint taken before the run; after is the root
// the processor returned.
func NewRun(id, tree, specHash, before string, after *ir.Node, proc *engine.Processor) Run {
	return Run{
		ID:                id,
		Tree:              tree,
		SpecHash:          specHash,
		FingerprintBefore: before,
		FingerprintAfter:  ir.Fingerprint(after),
		Stats:             proc.Stats(),
		EngineVersion:     ir.EngineVersion,
		IRVersion:         ir.IRVersion,
	}
}

// WriteRun stores a run and the firings of its trace in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing a run id twice
// leaves the first write in place and stores no firings.
func (s *Store) WriteRun(ctx context.Context, run Run, trace *engine.Trace) error {
	if run.ID == "" {
		return errors.New("write run: empty run id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "write run: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO rewrite_runs
		(id, tree, spec_hash, fingerprint_before, fingerprint_after,
		 passes, firings, cycles_broken, memoized, anomalies, engine_version, ir_version,
		 rules, pass_limit, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Tree,
		run.SpecHash,
		run.FingerprintBefore,
		run.FingerprintAfter,
		run.Stats.Passes,
		run.Stats.Firings,
		run.Stats.CyclesBroken,
		run.Stats.Memoized,
		run.Stats.Anomalies,
		run.EngineVersion,
		run.IRVersion,
		strings.Join(run.Rules, ","),
		run.PassLimit,
		run.Context,
	)
	if err != nil {
		return errors.Wrapf(err, "write run %s", run.ID)
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrapf(err, "write run %s", run.ID)
	} else if n == 0 {
		return nil
	}

	if trace != nil {
		for _, f := range trace.Firings {
			if err := writeFiring(ctx, tx, run.ID, f); err != nil {
				return err
			}
		}
	}
	return errors.Wrapf(tx.Commit(), "write run %s: commit", run.ID)
}

func writeFiring(ctx context.Context, tx *sql.Tx, runID string, f engine.Firing) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO rule_firings
		(run_id, seq, rule, node_id, op_before, op_after, pass)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		f.Seq,
		f.Rule,
		int64(f.NodeID),
		f.OpBefore.String(),
		f.OpAfter.String(),
		f.Pass,
	)
	return errors.Wrapf(err, "write firing %d of run %s", f.Seq, runID)
}
