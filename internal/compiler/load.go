package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/errors"
)

// DomainSpec separates spec hashes from any other hash in the module.
const DomainSpec = "plancore/spec/v1"

// Source is the content of one CUE spec file.
type Source struct {
	Name string
	Data []byte
}

// ReadSources reads the files at paths, in order.
func ReadSources(paths ...string) ([]Source, error) {
	srcs := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read spec %s", path)
		}
		srcs = append(srcs, Source{Name: path, Data: data})
	}
	return srcs, nil
}

// CompileSources unifies srcs into one value and compiles it. Files need
// not share a directory or a package clause. The program's SpecHash is set
// from the sources.
func CompileSources(srcs []Source) (*Program, []error) {
	if len(srcs) == 0 {
		return newProgram(), []error{&CompileError{Code: ErrCodeMissingField, Field: "spec", Message: "no spec sources"}}
	}
	ctx := cuecontext.New()
	var v cue.Value
	for i, src := range srcs {
		sv := ctx.CompileBytes(src.Data, cue.Filename(src.Name))
		if err := sv.Err(); err != nil {
			return newProgram(), []error{formatCUEError(err, "spec")}
		}
		if i == 0 {
			v = sv
			continue
		}
		v = v.Unify(sv)
	}
	p, errs := Compile(v)
	p.SpecHash = SpecHash(srcs)
	return p, errs
}

// SpecHash returns a stable hash of srcs. The order of srcs does not
// matter; file names take part so moving a declaration between files
// changes the hash.
func SpecHash(srcs []Source) string {
	sorted := slices.Clone(srcs)
	slices.SortFunc(sorted, func(a, b Source) int { return strings.Compare(a.Name, b.Name) })
	h := sha256.New()
	h.Write([]byte(DomainSpec))
	h.Write([]byte{0x00})
	for _, src := range sorted {
		h.Write([]byte(src.Name))
		h.Write([]byte{0x00})
		h.Write(src.Data)
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}
