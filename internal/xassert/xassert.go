// Package xassert extends the testify assert package with additional test helpers.
package xassert

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ErikKalkoken/go-set"
	"github.com/stretchr/testify/assert"
)

// PanicsWithErrorIs asserts that fn panics with an error that matches target via errors.Is.
func PanicsWithErrorIs(t *testing.T, target error, fn func()) bool {
	t.Helper()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()
	if recovered == nil {
		return assert.Fail(t, "function did not panic", "expected panic matching %v", target)
	}
	err, ok := recovered.(error)
	if !ok {
		return assert.Fail(t, "panic value is not an error", "got %T: %v", recovered, recovered)
	}
	return assert.Truef(t, errors.Is(err, target), "panic %q does not match %q", err, target)
}

// EqualSet asserts that two sets are equal.
func EqualSet[T comparable](t *testing.T, want, got set.Set[T]) bool {
	t.Helper()
	return assert.Truef(t, got.Equal(want), "Not equal:\nexpected: %s\nactual  : %s", fmt.Sprint(want), fmt.Sprint(got))
}
