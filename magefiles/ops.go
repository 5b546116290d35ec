//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Once runs a single collection cycle against the configured store.
func Once() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "run", "--once")
}

// Schema creates the record table in the configured store.
func Schema() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "store", "init")
}

// Import loads a small slice of every built-in library, for local stores.
func Import() error {
	mg.Deps(Schema)
	return sh.RunV(binPath, "import", "--limit-genes", "200")
}

// Health probes the configured store once.
func Health() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "health")
}
