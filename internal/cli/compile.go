package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/plancore/internal/colmap"
	"github.com/roach88/plancore/internal/compiler"
	"github.com/roach88/plancore/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult summarizes a compiled specs directory.
type CompilationResult struct {
	SpecHash   string                  `json:"spec_hash"`
	Files      []string                `json:"files"`
	Tables     []string                `json:"tables"`
	Types      []string                `json:"types"`
	EntitySets []string                `json:"entity_sets"`
	Trees      []TreeSummary           `json:"trees"`
	VarMaps    []string                `json:"var_maps"`
	ColumnMaps []ColumnMapSummary      `json:"column_maps"`
	Rules      []RuleSummary           `json:"rules"`
	Cycles     []compiler.CycleWarning `json:"cycles"`
}

// TreeSummary describes one compiled tree.
type TreeSummary struct {
	Name        string `json:"name"`
	Nodes       int    `json:"nodes"`
	Fingerprint string `json:"fingerprint"`
	Plan        string `json:"plan"`
}

// ColumnMapSummary describes one compiled column map.
type ColumnMapSummary struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Copyable bool   `json:"copyable"`
}

// RuleSummary describes one compiled rule.
type RuleSummary struct {
	Name    string `json:"name"`
	Match   string `json:"match"`
	Pattern bool   `json:"pattern"`
	Kind    string `json:"kind"`
	Rewrite string `json:"rewrite"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE specs into trees, rules and column maps",
		Long: `Compile the CUE files of a specs directory into plan trees, rewrite
rules, var maps and column maps, and summarize what was declared.

Every compile error is reported. Retag rules that can rewrite an op type
back into itself are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the JSON summary to this file")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil {
		code, msg := errorCode(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, msg)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := summarize(loadResult)
	for _, name := range slices.Sorted(maps.Keys(loadResult.Program.Trees)) {
		formatter.VerboseLog("Compiled tree: %s", name)
	}
	for _, w := range result.Cycles {
		formatter.Warn("%s", w.Message)
	}

	if opts.Output != "" {
		if err := writeSummary(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}
	return outputCompileSuccess(formatter, result, opts.Output)
}

// summarize builds the summary of a compiled program. Names are sorted;
// rules keep their declaration order.
func summarize(lr *LoadResult) *CompilationResult {
	p := lr.Program
	result := &CompilationResult{
		SpecHash:   p.SpecHash,
		Files:      lr.Files,
		Tables:     slices.Sorted(maps.Keys(p.Tables)),
		Types:      slices.Sorted(maps.Keys(p.Types)),
		EntitySets: slices.Sorted(maps.Keys(p.EntitySets)),
		VarMaps:    slices.Sorted(maps.Keys(p.VarMaps)),
		Trees:      []TreeSummary{},
		ColumnMaps: []ColumnMapSummary{},
		Rules:      []RuleSummary{},
		Cycles:     compiler.AnalyzeCycles(p.RuleSpecs),
	}
	for _, name := range slices.Sorted(maps.Keys(p.Trees)) {
		root := p.Trees[name]
		nodes := 0
		root.Walk(func(*ir.Node) bool {
			nodes++
			return true
		})
		result.Trees = append(result.Trees, TreeSummary{
			Name:        name,
			Nodes:       nodes,
			Fingerprint: ir.Fingerprint(root),
			Plan:        ir.Format(root),
		})
	}
	for _, name := range slices.Sorted(maps.Keys(p.ColumnMaps)) {
		m := p.ColumnMaps[name]
		result.ColumnMaps = append(result.ColumnMaps, ColumnMapSummary{
			Name:     name,
			Kind:     columnMapKind(m),
			Copyable: compiler.Copyable(m),
		})
	}
	for _, rs := range p.RuleSpecs {
		result.Rules = append(result.Rules, RuleSummary{
			Name:    rs.Name,
			Match:   rs.Match.String(),
			Pattern: rs.Pattern != nil,
			Kind:    rs.Kind.String(),
			Rewrite: describeRewrite(rs),
		})
	}
	return result
}

func describeRewrite(rs compiler.RuleSpec) string {
	if rs.Kind == compiler.RewriteHoist {
		return fmt.Sprintf("child %d", rs.Child)
	}
	return rs.Target.String()
}

// columnMapKind is the kind printed on the first line of a formatted map.
func columnMapKind(m colmap.ColumnMap) string {
	kind, _, _ := strings.Cut(colmap.Format(m), " ")
	return kind
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d tree(s), %d rule(s), %d column map(s) from %d file(s)\n\n",
		len(result.Trees), len(result.Rules), len(result.ColumnMaps), len(result.Files))

	if len(result.Trees) > 0 {
		fmt.Fprintln(w, "Trees:")
		for _, t := range result.Trees {
			fmt.Fprintf(w, "  %s: %d node(s)\n", t.Name, t.Nodes)
		}
		fmt.Fprintln(w)
	}

	if len(result.Rules) > 0 {
		fmt.Fprintln(w, "Rules:")
		for _, r := range result.Rules {
			fmt.Fprintf(w, "  %s: %s → %s (%s)\n", r.Name, r.Match, r.Rewrite, r.Kind)
		}
		fmt.Fprintln(w)
	}

	if len(result.ColumnMaps) > 0 {
		fmt.Fprintln(w, "Column maps:")
		for _, m := range result.ColumnMaps {
			fmt.Fprintf(w, "  %s: %s\n", m.Name, m.Kind)
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote summary to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors outputs every compile error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	exitErr := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.IsJSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := errorCode(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{Status: "error", Error: &cliErrors[0], Data: cliErrors}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		code, message := errorCode(err)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}
	return exitErr
}

func writeSummary(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}
	return errors.Wrap(os.WriteFile(filename, data, 0o644), "write summary")
}
