package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/ir"
)

// ContractError describes a rule or pattern that broke the processor's
// contract.
//
// Contract errors include:
//   - A rule reported "unchanged" but returned a different node
//   - A rule reported "unchanged" but mutated the node in place
//   - A rule reported "changed" but the subtree is identical
//   - A rewrite produced a node whose child count violates its op's arity
//   - A pattern is rooted at Leaf
//
// They are raised as panics wrapped with errors.WithAssertionFailure; use
// errors.As on the recovered value to inspect the fields.
type ContractError struct {
	// Code identifies the violation.
	Code ContractErrorCode

	// Message is a human-readable description.
	Message string

	// Rule names the offending rule, if any.
	Rule string

	// Op is the OpType of the node being rewritten.
	Op ir.OpType
}

// ContractErrorCode categorizes contract violations.
type ContractErrorCode string

const (
	// ErrCodeUnchangedButReplaced: the rule returned a different node while
	// reporting no change.
	ErrCodeUnchangedButReplaced ContractErrorCode = "UNCHANGED_BUT_REPLACED"

	// ErrCodeUnchangedButMutated: the rule mutated the subtree while
	// reporting no change. Only detected with WithContractChecks.
	ErrCodeUnchangedButMutated ContractErrorCode = "UNCHANGED_BUT_MUTATED"

	// ErrCodeChangedButIdentical: the rule reported a change but returned a
	// structurally identical subtree. Only detected with WithContractChecks.
	ErrCodeChangedButIdentical ContractErrorCode = "CHANGED_BUT_IDENTICAL"

	// ErrCodeNilRewrite: the rule reported a change and returned nil.
	ErrCodeNilRewrite ContractErrorCode = "NIL_REWRITE"

	// ErrCodeArity: a rewrite result violates its op's arity.
	ErrCodeArity ContractErrorCode = "ARITY_VIOLATION"

	// ErrCodeInvalidPattern: a pattern cannot be registered.
	ErrCodeInvalidPattern ContractErrorCode = "INVALID_PATTERN"

	// ErrCodeDuplicateRule: two rules in one table share a name.
	ErrCodeDuplicateRule ContractErrorCode = "DUPLICATE_RULE"
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s, op=%s)", e.Code, e.Message, e.Rule, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// contractViolation panics with a ContractError marked as an assertion
// failure.
func contractViolation(code ContractErrorCode, rule *Rule, op ir.OpType, format string, args ...any) {
	ce := &ContractError{Code: code, Message: fmt.Sprintf(format, args...), Op: op}
	if rule != nil {
		ce.Rule = rule.Name()
	}
	panic(errors.WithAssertionFailure(ce))
}

// IsContractError reports whether err is a ContractError with the given
// code. Wrapped errors are unwrapped.
func IsContractError(err error, code ContractErrorCode) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
