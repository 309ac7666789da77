// Package appfs embeds the files the binaries need at runtime.
package appfs

import "embed"

// The all: prefix keeps the "_base" layouts, which plain directory patterns skip.
//
//go:embed migrations all:templates
var FS embed.FS
