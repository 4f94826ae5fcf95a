package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/cockroachdb/errors"
)

// Compile error codes (E100-E199).
const (
	ErrCodeCUE            = "E100" // CUE evaluation error
	ErrCodeMissingField   = "E101" // required field absent
	ErrCodeBadField       = "E102" // field present with the wrong shape
	ErrCodeUnknownType    = "E103" // type reference does not resolve
	ErrCodeUnknownOp      = "E104" // op name does not parse
	ErrCodeUnknownName    = "E105" // table, var, entity set or column map not declared
	ErrCodeDuplicateName  = "E106" // name declared twice
	ErrCodeArity          = "E107" // wrong number of children
	ErrCodeUnsupportedOp  = "E108" // op cannot be written in a tree spec
	ErrCodeBadRewrite     = "E109" // rewrite incompatible with the match
	ErrCodeFloatForbidden = "E110" // float constants are not allowed
)

// CompileError is a compilation error with a source position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: [%s] %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsCompileError reports whether err is a CompileError with the given code.
// An empty code matches any CompileError.
func IsCompileError(err error, code string) bool {
	var ce *CompileError
	if !errors.As(err, &ce) {
		return false
	}
	return code == "" || ce.Code == code
}

func errorf(code string, v cue.Value, field, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Field: field, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, field string) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	ce := &CompileError{Code: ErrCodeCUE, Field: field, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// lookup returns the field at path, and whether it exists.
func lookup(v cue.Value, path string) (cue.Value, bool) {
	f := v.LookupPath(cue.ParsePath(path))
	return f, f.Exists()
}

func requireString(v cue.Value, path, field string) (string, error) {
	f, ok := lookup(v, path)
	if !ok {
		return "", errorf(ErrCodeMissingField, v, field, "%s is required", path)
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err, field+"."+path)
	}
	return s, nil
}

func optionalString(v cue.Value, path, field string) (string, error) {
	if _, ok := lookup(v, path); !ok {
		return "", nil
	}
	return requireString(v, path, field)
}

func optionalInt(v cue.Value, path, field string) (int, error) {
	f, ok := lookup(v, path)
	if !ok {
		return 0, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, formatCUEError(err, field+"."+path)
	}
	return int(n), nil
}

func optionalBool(v cue.Value, path, field string, def bool) (bool, error) {
	f, ok := lookup(v, path)
	if !ok {
		return def, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err, field+"."+path)
	}
	return b, nil
}

// stringList reads an optional list of strings.
func stringList(v cue.Value, path, field string) ([]string, error) {
	f, ok := lookup(v, path)
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err, field+"."+path)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err, field+"."+path)
		}
		out = append(out, s)
	}
	return out, nil
}

// list reads an optional list of values.
func list(v cue.Value, path, field string) ([]cue.Value, error) {
	f, ok := lookup(v, path)
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err, field+"."+path)
	}
	var out []cue.Value
	for iter.Next() {
		out = append(out, iter.Value())
	}
	return out, nil
}
