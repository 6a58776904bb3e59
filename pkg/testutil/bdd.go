package testutil

import "testing"

// Given runs fn as a subtest named after a precondition, so test output
// reads as a behavior description. When and Then do the same for the action
// and the expected outcome.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

// When runs fn as a subtest named after the action under test.
func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

// Then runs fn as a subtest named after the expected outcome.
func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
