//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Survey groups targets that drive the CLI.
type Survey mg.Namespace

// Run surveys a topic with the default settings, e.g. mage survey:run "quantum error correction".
func (Survey) Run(topic string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "survey", "--render", topic)
}

// Serve starts the web form on the default address.
func (Survey) Serve() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "serve")
}

// Search queries arXiv directly, e.g. mage survey:search "graph neural networks".
func (Survey) Search(query string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "search", query)
}

func binPath() string {
	return binDir + string(os.PathSeparator) + binName
}
