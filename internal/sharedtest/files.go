package sharedtest

import (
	"os"
)

// WithTempFileContaining creates a temporary file with the given contents, passes its path to the
// action, and deletes it afterward.
func WithTempFileContaining(data []byte, action func(filename string)) {
	f, err := os.CreateTemp("", "analytics-test")
	if err != nil {
		panic(err)
	}
	name := f.Name()
	defer func() { _ = os.Remove(name) }()
	_, err = f.Write(data)
	_ = f.Close()
	if err != nil {
		panic(err)
	}
	action(name)
}
