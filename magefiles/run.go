//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the sandbox with ember.toml.
func (Run) Sandbox() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run sandbox...")
	if _, err := executeCmd("bin/ember", withArgs("-config", "ember.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
