// Package web bundles the dashboard templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

// Templates embeds HTML templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds static assets.
//
//go:embed static/**/*
var Static embed.FS

// TemplatePatterns lists the template globs in parse order. Layouts and
// partials are parsed before the pages that include them.
var TemplatePatterns = []string{
	"templates/layouts/*.html",
	"templates/partials/*.html",
	"templates/pages/*.html",
}

// StaticFS returns the static assets rooted at the static directory.
func StaticFS() (fs.FS, error) {
	return fs.Sub(Static, "static")
}
