package core

// status.go infers what kind of status a column holds so every grid renders
// status values as consistently colored pills.
//
// Classification runs an explicit priority list, first match wins:
//
//  1. caller mapping for the column accessor
//  2. keyword match on the accessor or header (nameRules)
//  3. vocabulary match on up to 10 sampled values (valueRules)
//  4. the caller's default context
//
// valueRules lists sales before user state: "pending" is in both
// vocabularies and must classify as sales.

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatusContext is the semantic category of a status column.
type StatusContext string

const (
	ContextInventory StatusContext = "inventory"
	ContextPayment   StatusContext = "payment"
	ContextSales     StatusContext = "sales"
	ContextUser      StatusContext = "user"
	ContextDelivery  StatusContext = "delivery"
	ContextGeneral   StatusContext = "general"
)

// NotAvailable is the canonical status for missing or placeholder values.
const NotAvailable = "n/a"

// maxStatusSamples bounds value-based inference.
const maxStatusSamples = 10

// notAvailableValues are placeholders folded into NotAvailable.
var notAvailableValues = map[string]bool{
	"":              true,
	"n/a":           true,
	"na":            true,
	"not available": true,
	"unavailable":   true,
	"none":          true,
	"unknown":       true,
}

// nameRule maps accessor/header keywords to a context.
type nameRule struct {
	keywords []string
	context  StatusContext
}

// valueRule maps a status vocabulary to a context.
type valueRule struct {
	vocabulary map[string]bool
	context    StatusContext
}

var nameRules = []nameRule{
	{keywords: []string{"stock", "inventory"}, context: ContextInventory},
	{keywords: []string{"payment", "paid"}, context: ContextPayment},
	{keywords: []string{"user", "account"}, context: ContextUser},
	{keywords: []string{"order", "sale"}, context: ContextSales},
	{keywords: []string{"delivery", "shipping"}, context: ContextDelivery},
}

var valueRules = []valueRule{
	{vocabulary: vocab("completed", "pending", "cancelled", "refunded", "processing", "hold", "layaway"), context: ContextSales},
	{vocabulary: vocab("in stock", "out of stock", "low stock", "discontinued"), context: ContextInventory},
	{vocabulary: vocab("paid", "unpaid", "partially paid", "overdue"), context: ContextPayment},
	{vocabulary: vocab("active", "inactive", "suspended", "pending"), context: ContextUser},
}

func vocab(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ClassifierOptions carries the caller's explicit mapping and fallback.
type ClassifierOptions struct {
	Explicit map[string]StatusContext
	Default  StatusContext
}

// NormalizeStatus folds nil, blank and placeholder values ("N/A", "none",
// "Unknown", ...) into NotAvailable and trims everything else.
func NormalizeStatus(v any) string {
	s := strings.TrimSpace(Stringify(v))
	if notAvailableValues[strings.ToLower(s)] {
		return NotAvailable
	}
	return s
}

// IsStatusColumn reports whether a column should render as status pills.
func IsStatusColumn(col Column) bool {
	if col.Kind == KindStatus {
		return true
	}
	if col.Kind == KindImage || col.Kind == KindCustom {
		return false
	}
	names := strings.ToLower(col.Accessor + " " + col.Header)
	return strings.Contains(names, "status") || strings.Contains(names, "state")
}

// ClassifyColumn assigns a status context to a column given a data sample.
func ClassifyColumn(col Column, sample []any, opts ClassifierOptions) StatusContext {
	if ctx, ok := opts.Explicit[col.Accessor]; ok && ctx != "" {
		return ctx
	}

	names := strings.ToLower(col.Accessor + " " + col.Header)
	for _, rule := range nameRules {
		for _, kw := range rule.keywords {
			if strings.Contains(names, kw) {
				return rule.context
			}
		}
	}

	values := statusSample(sample)
	for _, rule := range valueRules {
		for _, v := range values {
			if rule.vocabulary[v] {
				return rule.context
			}
		}
	}

	if opts.Default != "" {
		return opts.Default
	}
	return ContextGeneral
}

// statusSample lower-cases up to maxStatusSamples non-empty values.
func statusSample(sample []any) []string {
	out := make([]string, 0, maxStatusSamples)
	for _, v := range sample {
		s := NormalizeStatus(v)
		if s == NotAvailable {
			continue
		}
		out = append(out, statusKey(s))
		if len(out) == maxStatusSamples {
			break
		}
	}
	return out
}

// statusKey lower-cases a status and treats underscores as spaces
// ("OUT_OF_STOCK" -> "out of stock").
func statusKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}

// ColumnSample collects up to maxStatusSamples non-empty values of a field.
func ColumnSample(records []Record, accessor string) []any {
	sample := make([]any, 0, maxStatusSamples)
	for _, r := range records {
		v := FieldValue(r, accessor)
		if isEmptyValue(v) {
			continue
		}
		sample = append(sample, v)
		if len(sample) == maxStatusSamples {
			break
		}
	}
	return sample
}

// Tone is the color family of a pill.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneInfo    Tone = "info"
	ToneNeutral Tone = "neutral"
)

// toneBase holds the base color of each tone.
var toneBase = map[Tone]string{
	ToneSuccess: "#16A34A",
	ToneWarning: "#D97706",
	ToneDanger:  "#DC2626",
	ToneInfo:    "#2563EB",
	ToneNeutral: "#6B7280",
}

// contextTones maps lower-cased status values to tones per context.
var contextTones = map[StatusContext]map[string]Tone{
	ContextSales: {
		"completed": ToneSuccess, "pending": ToneWarning, "processing": ToneInfo,
		"cancelled": ToneDanger, "refunded": ToneNeutral, "hold": ToneWarning, "layaway": ToneInfo,
	},
	ContextInventory: {
		"in stock": ToneSuccess, "low stock": ToneWarning, "out of stock": ToneDanger, "discontinued": ToneNeutral,
	},
	ContextPayment: {
		"paid": ToneSuccess, "partially paid": ToneWarning, "unpaid": ToneDanger, "overdue": ToneDanger,
	},
	ContextUser: {
		"active": ToneSuccess, "inactive": ToneNeutral, "suspended": ToneDanger, "pending": ToneWarning,
	},
	ContextDelivery: {
		"delivered": ToneSuccess, "shipped": ToneInfo, "in transit": ToneInfo, "pending": ToneWarning,
		"returned": ToneDanger, "failed": ToneDanger,
	},
}

// generalTones covers values outside any context vocabulary.
var generalTones = map[string]Tone{
	"approved": ToneSuccess, "accepted": ToneSuccess, "success": ToneSuccess, "confirmed": ToneSuccess,
	"valid": ToneSuccess, "enabled": ToneSuccess, "published": ToneSuccess, "checked in": ToneSuccess,
	"rejected": ToneDanger, "declined": ToneDanger, "failed": ToneDanger, "error": ToneDanger,
	"expired": ToneDanger, "disabled": ToneNeutral, "draft": ToneNeutral, "archived": ToneNeutral,
	"pending": ToneWarning, "review": ToneWarning, "in review": ToneWarning, "waiting": ToneWarning,
	"scheduled": ToneInfo, "new": ToneInfo,
}

var titleCaser = cases.Title(language.English)

// Pill is the rendering policy for one status value.
type Pill struct {
	Label      string        `json:"label"`
	Value      string        `json:"value"`
	Context    StatusContext `json:"context"`
	Tone       Tone          `json:"tone"`
	Foreground string        `json:"fg"`
	Background string        `json:"bg"`
}

// PillFor decides label and colors for a status value in a context.
func PillFor(ctx StatusContext, value any) Pill {
	normalized := NormalizeStatus(value)
	key := statusKey(normalized)

	tone := ToneNeutral
	if normalized != NotAvailable {
		if t, ok := contextTones[ctx][key]; ok {
			tone = t
		} else if t, ok := generalTones[key]; ok {
			tone = t
		}
	}

	label := "N/A"
	if normalized != NotAvailable {
		label = titleCaser.String(strings.ReplaceAll(normalized, "_", " "))
	}

	base, _ := colorful.Hex(toneBase[tone])
	bg := base.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.85).Clamped()
	return Pill{
		Label:      label,
		Value:      normalized,
		Context:    ctx,
		Tone:       tone,
		Foreground: textColorOn(bg, base),
		Background: bg.Hex(),
	}
}

// textColorOn picks a readable text color for bg: the darkened tone on light
// backgrounds, white otherwise.
func textColorOn(bg, tone colorful.Color) string {
	if relativeLuminance(bg) > 0.45 {
		return tone.BlendLab(colorful.Color{}, 0.35).Clamped().Hex()
	}
	return "#ffffff"
}

func relativeLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// RGBHex converts 0-255 channels to "#rrggbb".
func RGBHex(r, g, b int) string {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}
