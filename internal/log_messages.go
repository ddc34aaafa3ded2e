package internal

import (
	"fmt"
	"os"
)

// This file contains helper functions for generating standardized log warnings. They are written
// directly to os.Stderr because they are for conditions where no configured ldlog.Loggers is
// available.

// LogErrorNilPointerMethod prints a message to os.Stderr to indicate that the application tried to call
// a method on a nil pointer receiver.
func LogErrorNilPointerMethod(typeName string) {
	fmt.Fprintf(os.Stderr, "[analytics] ERROR: tried to call a method on a nil pointer of type *%s\n", typeName)
}
