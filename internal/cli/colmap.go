package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/plancore/internal/colmap"
	"github.com/roach88/plancore/internal/compiler"
	"github.com/roach88/plancore/internal/ir"
)

// ColmapOptions holds flags for the colmap command.
type ColmapOptions struct {
	*RootOptions
	Map    string
	VarMap string
}

// ColmapResult is a column map and, when a var map was given, its copy.
type ColmapResult struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Map        string   `json:"map"`
	Vars       []string `json:"vars"`
	VarMap     string   `json:"var_map,omitempty"`
	Copy       string   `json:"copy,omitempty"`
	CopiedVars []string `json:"copied_vars,omitempty"`
}

// NewColmapCommand creates the colmap command.
func NewColmapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ColmapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "colmap <specs-dir>",
		Short: "Print a column map, or its copy through a var map",
		Long: `Print a column map declared in a specs directory. With --varmap the map
is copied with every var reference replaced by following the var map's
chain, and the copy is printed as well.

Column maps holding a MultipleDiscriminatorPolymorphic map cannot be
copied.

Examples:
  plancore colmap ./specs --map order
  plancore colmap ./specs --map order --varmap rename`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColmap(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Map, "map", "", "name of the column map (required)")
	_ = cmd.MarkFlagRequired("map")
	cmd.Flags().StringVar(&opts.VarMap, "varmap", "", "copy the column map through this var map")

	return cmd
}

func runColmap(opts *ColmapOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := loadProgram(formatter, specsDir)
	if err != nil {
		return err
	}
	prog := loaded.Program

	m, ok := prog.ColumnMaps[opts.Map]
	if !ok {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("column map %q is not declared; declared: %s", opts.Map, declared(prog.ColumnMaps)))
	}
	result := ColmapResult{
		Name: opts.Map,
		Kind: columnMapKind(m),
		Map:  colmap.Format(m),
		Vars: varNames(colmap.ReferencedVars(m)),
	}

	if opts.VarMap != "" {
		vm, ok := prog.VarMaps[opts.VarMap]
		if !ok {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound,
				fmt.Sprintf("var map %q is not declared; declared: %s", opts.VarMap, declared(prog.VarMaps)))
		}
		if !compiler.Copyable(m) {
			return formatter.Fail(ExitCommandError, compiler.ErrColumnMapNotCopy,
				fmt.Sprintf("column map %q holds a MultipleDiscriminatorPolymorphic map, which cannot be copied", opts.Map))
		}
		copied := colmap.Copy(m, vm)
		result.VarMap = opts.VarMap
		result.Copy = colmap.Format(copied)
		result.CopiedVars = varNames(colmap.ReferencedVars(copied))
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Column map %s (%s):\n", result.Name, result.Kind)
	fmt.Fprint(w, indentLines(result.Map, "  "))
	fmt.Fprintf(w, "  vars: %s\n", strings.Join(result.Vars, " "))
	if result.VarMap != "" {
		fmt.Fprintf(w, "\nCopy through %s:\n", result.VarMap)
		fmt.Fprint(w, indentLines(result.Copy, "  "))
		fmt.Fprintf(w, "  vars: %s\n", strings.Join(result.CopiedVars, " "))
	}
	return nil
}

// varNames renders vars as "v<id>(name)".
func varNames(vars ir.VarList) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = fmt.Sprintf("%s(%s)", v, v.Name())
	}
	return names
}

func declared[V any](m map[string]V) string {
	names := slices.Sorted(maps.Keys(m))
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
