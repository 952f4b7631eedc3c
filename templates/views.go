// templates/views.go
package templates

import "io/fs"

// Set is a group of template files loaded from one filesystem.
type Set struct {
	// Name is used in logs and errors only.
	Name string
	FS   fs.FS
	// Patterns are fs.Glob patterns, e.g. "templates/*.gohtml".
	Patterns []string
}
