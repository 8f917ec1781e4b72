// asserter_test.go -- tiny assert-helper shared by this package's non-testify tests
//
// (c) Sudhi Herle 2018
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package gov

import "testing"

// newAsserter returns a closure that fails+aborts the current test when
// 'cond' is false, formatting a message the way t.Fatalf does.
func newAsserter(t *testing.T) func(cond bool, f string, v ...interface{}) {
	t.Helper()
	return func(cond bool, f string, v ...interface{}) {
		if !cond {
			t.Helper()
			t.Fatalf(f, v...)
		}
	}
}
