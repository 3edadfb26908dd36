// Package ui provides embedded static files for the web user interface.
// It contains the stylesheet and the templ components of the status page. Static assets are embedded
// into the binary at compile time using Go's embed directive.
package ui

import (
	"embed"
)

// StaticFiles is an embedded file system containing the files located under the "static" directory.
//
//go:embed static/*
var StaticFiles embed.FS
