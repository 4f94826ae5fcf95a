package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/compiler"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast reports only the first compile error.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll reports every compile error.
	LoadModeCollectAll
)

// LoadResult is a compiled specs directory.
type LoadResult struct {
	Program   *compiler.Program
	CUEValue  cue.Value // The raw CUE value for additional processing
	Files     []string  // CUE files, relative to the specs directory
	FileCount int
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants shared by all commands. Compile errors keep the
// compiler's own codes (E100-E110).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path, tree, run or database not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeInvalidArg  = "E008" // Flag or stored run configuration out of range
)

// LoadSpecs loads every CUE file directly inside dir as one instance and
// compiles it. A nil result means nothing could be compiled; a result with
// errors holds every declaration that did compile.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	specHash, err := hashSpecs(dir, cueFiles)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: err.Error()}}
	}

	prog, compileErrs := compiler.Compile(value)
	prog.SpecHash = specHash
	result := &LoadResult{
		Program:   prog,
		CUEValue:  value,
		FileCount: len(cueFiles),
	}
	for _, f := range cueFiles {
		rel, _ := filepath.Rel(dir, f)
		result.Files = append(result.Files, rel)
	}

	var errs []error
	for _, err := range compileErrs {
		errs = append(errs, convertCompileError(err))
		if mode == LoadModeFailFast {
			return result, errs
		}
	}
	if len(errs) == 0 && len(prog.Trees) == 0 && len(prog.RuleSpecs) == 0 && len(prog.ColumnMaps) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no trees, rules or column maps found in specs"})
	}
	return result, errs
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
// Subdirectories are not part of the instance and are skipped.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// hashSpecs hashes the spec files by their names relative to dir, so the
// hash does not depend on where the directory lives.
func hashSpecs(dir string, files []string) (string, error) {
	srcs, err := compiler.ReadSources(files...)
	if err != nil {
		return "", errors.Wrap(err, "hash specs")
	}
	for i := range srcs {
		if rel, err := filepath.Rel(dir, srcs[i].Name); err == nil {
			srcs[i].Name = filepath.ToSlash(rel)
		}
	}
	return compiler.SpecHash(srcs), nil
}

// convertCompileError converts a compiler error to a LoadError with
// position info. The compiler's code is kept.
func convertCompileError(err error) *LoadError {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    ce.Code,
			Message: fmt.Sprintf("%s: %s", ce.Field, ce.Message),
			Pos:     ce.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// errorCode extracts an error code and message from a load error.
func errorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// loadProgram loads dir and fails the command on any load or compile
// error. Commands that act on a program use it; compile and validate
// report errors themselves.
func loadProgram(f *OutputFormatter, dir string) (*LoadResult, error) {
	result, errs := LoadSpecs(dir, LoadModeFailFast)
	if len(errs) > 0 {
		code, msg := errorCode(errs[0])
		return nil, f.Fail(ExitCommandError, code, msg)
	}
	f.VerboseLog("Loaded %d CUE file(s) from %s", result.FileCount, dir)
	return result, nil
}
