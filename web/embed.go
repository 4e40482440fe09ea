// Package web embeds the page templates and static assets of the catalog.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

var (
	staticFS    = mustSub("static")
	templatesFS = mustSub("templates")
)

// mustSub panics when dir was not embedded, which is a build mistake.
func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic("web: embedded " + dir + " directory: " + err.Error())
	}
	return sub
}

// StaticFS returns the stylesheet and other assets served under /static/.
func StaticFS() fs.FS { return staticFS }

// TemplatesFS returns the page templates.
func TemplatesFS() fs.FS { return templatesFS }
