//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert writes a Markdown rendition of a PDF under output/.
// Usage: mage convert paper.pdf
func Convert(pdf string) error {
	mg.Deps(Init)
	ensureBuilt()
	return sh.RunV(binPath(), "convert", "--filepath", pdf)
}
