//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Serve builds the binary and runs the HTTP service in the foreground.
func Serve() error {
	mg.Deps(Init, Build)
	return sh.RunV("./bin/convertly", "serve")
}

// Doctor reports which external tools the service can find.
func Doctor() error {
	mg.Deps(Build)
	return sh.RunV("./bin/convertly", "doctor")
}

// Sweep runs one retention pass over the artifact directories.
func Sweep() error {
	mg.Deps(Build)
	return sh.RunV("./bin/convertly", "sweep")
}
