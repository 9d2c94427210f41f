// Package templates holds the templ components of the grid console.
//
// Edit the .templ files and run `templ generate`; the *_templ.go files are
// generated.
package templates

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/admingrid/internal/core"
)

// GridGroup is one dashboard section.
type GridGroup struct {
	Title string
	Grids []GridLink
}

// GridLink points at a grid page.
type GridLink struct {
	Key   string
	Label string
}

func viewPath(viewID string, parts ...string) string {
	return "/api/views/" + viewID + "/" + strings.Join(parts, "/")
}

func viewTarget(viewID string) string {
	return "#view-" + viewID
}

func ariaSort(d core.SortDirection) string {
	return string(d) + "ending"
}

func pageVals(page int) string {
	return fmt.Sprintf(`{"page": %d}`, page)
}

func pillStyle(p core.Pill) map[string]string {
	return map[string]string{
		"color":            p.Foreground,
		"background-color": p.Background,
	}
}

// bulkActions keeps the actions that run over a selection.
func bulkActions(actions []core.Action) []core.Action {
	out := make([]core.Action, 0, len(actions))
	for _, a := range actions {
		if a.Bulk {
			out = append(out, a)
		}
	}
	return out
}
