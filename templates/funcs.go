// templates/funcs.go
package templates

import (
	"html/template"
	"strings"
	"time"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		// {{ seconds .Remaining }} → whole seconds, rounded up, never negative
		"seconds": func(d time.Duration) int {
			if d <= 0 {
				return 0
			}
			return int((d + time.Second - 1) / time.Second)
		},
		"year": func() int { return time.Now().Year() },
	}
}
