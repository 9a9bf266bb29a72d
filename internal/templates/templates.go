// Package templates embeds the project scaffolding shipped with stackgen.
//
// The tree is organised by concern: base/, database/<engine>/, orm/<name>/,
// backend/<name>/, frontend/<name>/, auth/<provider>/ and addons/<name>/.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed all:files
var content embed.FS

// FS returns the template tree rooted at files/.
func FS() fs.FS {
	sub, err := fs.Sub(content, "files")
	if err != nil {
		panic("templates: embedded tree missing: " + err.Error())
	}
	return sub
}

// Dir returns the template directory for a concern and option,
// e.g. Dir("backend", "hono") is "backend/hono".
func Dir(concern, option string) string {
	return concern + "/" + option
}
