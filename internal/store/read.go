package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/ir"
)

const runColumns = `id, tree, spec_hash, fingerprint_before, fingerprint_after,
	passes, firings, cycles_broken, memoized, anomalies, engine_version, ir_version,
	rules, pass_limit, context`

// ReadRun retrieves a single run by id.
// Returns an error satisfying errors.Is(err, sql.ErrNoRows) if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM rewrite_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, errors.Wrapf(err, "read run %s", id)
	}
	return run, nil
}

// ListRuns returns every stored run, oldest first. When tree is not empty
// only runs of that tree are returned.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, tree string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM rewrite_runs`
	var args []any
	if tree != "" {
		query += ` WHERE tree = ?`
		args = append(args, tree)
	}
	query += ` ORDER BY id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}
	return runs, nil
}

// ReadFirings returns the firings of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run has no firings.
func (s *Store) ReadFirings(ctx context.Context, runID string) ([]engine.Firing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, rule, node_id, op_before, op_after, pass
		FROM rule_firings
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query firings")
	}
	defer rows.Close()

	firings := []engine.Firing{}
	for rows.Next() {
		var (
			f             engine.Firing
			nodeID        int64
			before, after string
		)
		if err := rows.Scan(&f.Seq, &f.Rule, &nodeID, &before, &after, &f.Pass); err != nil {
			return nil, errors.Wrap(err, "scan firing")
		}
		f.NodeID = uint64(nodeID)
		if f.OpBefore, err = parseOpType(before); err != nil {
			return nil, err
		}
		if f.OpAfter, err = parseOpType(after); err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate firings")
	}
	return firings, nil
}

// RuleCount is the number of stored firings of one rule.
type RuleCount struct {
	Rule  string `json:"rule"`
	Count int    `json:"count"`
}

// RuleStats counts stored firings per rule across all runs, most frequent
// first, ties by rule name.
func (s *Store) RuleStats(ctx context.Context) ([]RuleCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, COUNT(*) AS n
		FROM rule_firings
		GROUP BY rule
		ORDER BY n DESC, rule COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query rule stats")
	}
	defer rows.Close()

	stats := []RuleCount{}
	for rows.Next() {
		var rc RuleCount
		if err := rows.Scan(&rc.Rule, &rc.Count); err != nil {
			return nil, errors.Wrap(err, "scan rule stats")
		}
		stats = append(stats, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rule stats")
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r     Run
		rules string
	)
	err := row.Scan(
		&r.ID,
		&r.Tree,
		&r.SpecHash,
		&r.FingerprintBefore,
		&r.FingerprintAfter,
		&r.Stats.Passes,
		&r.Stats.Firings,
		&r.Stats.CyclesBroken,
		&r.Stats.Memoized,
		&r.Stats.Anomalies,
		&r.EngineVersion,
		&r.IRVersion,
		&rules,
		&r.PassLimit,
		&r.Context,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, errors.Wrap(err, "scan run")
	}
	if rules != "" {
		r.Rules = strings.Split(rules, ",")
	}
	return r, nil
}

func parseOpType(name string) (ir.OpType, error) {
	t, ok := ir.ParseOpType(name)
	if !ok {
		return ir.OpUnknown, errors.Newf("stored firing has unknown op type %q", name)
	}
	return t, nil
}
