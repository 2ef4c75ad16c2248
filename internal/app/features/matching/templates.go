// internal/app/features/matching/templates.go
package matching

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "matching",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
