// helpers_test.go - shared test scaffolding
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package memsnap_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// assertAs is a thin wrapper around errors.As so tests can check the
// taxonomy from §9 without importing "errors" in every test file.
func assertAs(err error, target interface{}) bool {
	return errors.As(err, target)
}

// newAsserter returns a closure in the style the teacher's own test suite
// already expects (mmap_test.go calls one of this shape), used throughout
// this package's tests instead of a third-party assertion library.
func newAsserter(t *testing.T) func(cond bool, format string, args ...interface{}) {
	t.Helper()
	return func(cond bool, format string, args ...interface{}) {
		if !cond {
			t.Helper()
			t.Fatalf(format, args...)
		}
	}
}

func tmpFile(t *testing.T, data []byte) *os.File {
	t.Helper()
	dir := t.TempDir()
	name := filepath.Join(dir, fmt.Sprintf("memsnap-test-%d", os.Getpid()))

	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		t.Fatalf("create %s: %s", name, err)
	}
	if len(data) > 0 {
		if _, err := f.Write(data); err != nil {
			t.Fatalf("write %s: %s", name, err)
		}
		if _, err := f.Seek(0, 0); err != nil {
			t.Fatalf("seek %s: %s", name, err)
		}
	}
	return f
}
