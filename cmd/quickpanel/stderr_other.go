//go:build !unix

package main

import "os"

// Stderr stays attached to the console; only the standard logger moves.
func redirectStderr(f *os.File) error {
	return nil
}
