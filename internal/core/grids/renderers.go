package grids

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/admingrid/internal/core"
)

// renderers maps the names used by `render:` in definitions to cell renderers.
var renderers = map[string]core.RenderFunc{
	"code":      renderCode,
	"reference": renderReference,
	"initials":  renderInitials,
}

// renderCode shows promo codes upper-cased, with the remaining uses when known.
func renderCode(rec core.Record, value any, _ int) string {
	code := strings.ToUpper(strings.TrimSpace(core.Stringify(value)))
	if code == "" {
		return core.EmptyCell
	}
	limit, ok := core.ParseNumber(core.Stringify(rec["max_uses"]))
	if !ok || limit <= 0 {
		return code
	}
	used, _ := core.ParseNumber(core.Stringify(rec["uses"]))
	return fmt.Sprintf("%s (%d left)", code, max(int(limit-used), 0))
}

// renderReference prefixes registration references with the event code.
func renderReference(rec core.Record, value any, _ int) string {
	ref := core.Stringify(value)
	if ref == "" {
		return core.EmptyCell
	}
	if prefix := core.Stringify(rec["event_code"]); prefix != "" {
		return prefix + "-" + ref
	}
	return ref
}

// renderInitials reduces a name to its initials for compact cells.
func renderInitials(_ core.Record, value any, _ int) string {
	var b strings.Builder
	for _, part := range strings.Fields(core.Stringify(value)) {
		r := []rune(part)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	if b.Len() == 0 {
		return core.EmptyCell
	}
	return b.String()
}
