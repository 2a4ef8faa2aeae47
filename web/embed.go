// Package web embeds the HTML templates and static assets served by
// cmd/doacoes.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// sub panics on failure: the directory names are fixed at compile time by
// the embed directive above.
func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		panic("web: embedded " + dir + ": " + err.Error())
	}
	return f
}

// StaticFS returns style sheets and other assets under /static/.
func StaticFS() fs.FS { return sub("static") }

// TemplatesFS returns the page templates, layout.html included.
func TemplatesFS() fs.FS { return sub("templates") }
