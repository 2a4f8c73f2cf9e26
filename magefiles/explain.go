//go:build mage

package main

import (
	"strings"

	"github.com/magefile/mage/sh"
)

// Explain explains a paper given an arXiv URL or a local PDF path.
// Usage: mage explain https://arxiv.org/abs/1706.03762
func Explain(source string) error {
	ensureBuilt()
	flag := "--filepath"
	if strings.Contains(source, "arxiv.org") {
		flag = "--url"
	}
	return sh.RunV(binPath(), "explain", flag, source)
}

// Serve starts the web form on the default address.
func Serve() error {
	ensureBuilt()
	return sh.RunV(binPath(), "serve")
}

// Models lists the models available to the configured key.
func Models() error {
	ensureBuilt()
	return sh.RunV(binPath(), "models")
}
