package hive

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a revision, logical item,
	// or lookup target does not exist (or no longer does).
	ErrNotFound = errors.New("not found")

	// ErrInvalidAclRole is returned for a role-scoped query
	// naming a role other than Owner, Admin, Writer, or Reader.
	ErrInvalidAclRole = errors.New("invalid acl role")

	// ErrPartialIndex is matched by every *IndexError.
	ErrPartialIndex = errors.New("partial index failure")

	// ErrStoreUnavailable is wrapped by backends around failures to reach
	// the underlying storage or transport.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IndexFailure is one index entry that could not be written.
// It carries everything needed to write it again.
type IndexFailure struct {
	Namespace Namespace
	Path      Path
	Target    Ref
	Tag       []byte
	Err       error
}

// IndexError reports that a revision was written
// but some of its index entries were not.
// The revision is not rolled back.
// Pass the error to content.Service.RetryIndex to re-issue the missing entries.
type IndexError struct {
	Target   Ref
	Failures []IndexFailure
}

func (e *IndexError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s %q: %s", f.Namespace, []string(f.Path), f.Err))
	}
	return fmt.Sprintf("%s: %d index entries for %s not written: %s", ErrPartialIndex, len(e.Failures), e.Target, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrPartialIndex) true for any *IndexError.
func (e *IndexError) Is(target error) bool {
	return target == ErrPartialIndex
}

// Unwrap exposes the cause of each failure to errors.Is and errors.As.
func (e *IndexError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

// StoreUnavailable marks err as a failure to reach the underlying storage or transport.
// The result matches ErrStoreUnavailable and still unwraps to err.
// It is nil if err is nil.
func StoreUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{err: err}
}

type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrStoreUnavailable, e.err)
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *unavailableError) Unwrap() error {
	return e.err
}
