package telemetry

import (
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// FilterConfig tunes the credential filter.
type FilterConfig struct {
	// Mask replaces every matched segment. Defaults to "[redacted]".
	Mask string
	// Patterns are extra regular expressions masked in addition to the
	// builtin credential shapes.
	Patterns []string
}

// Filter scrubs credential-shaped text so it never reaches an exporter.
// A nil filter passes everything through.
type Filter struct {
	mask  string
	rules []*regexp.Regexp
}

// The builtin shapes: a raw JWT, a key/value credential assignment, and a
// bearer header.
var builtinRules = []string{
	`eyJ[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]*`,
	`(?i)(token|password|secret|authorization)[\s:=]+[a-z0-9\-_.]{8,}`,
	`(?i)bearer\s+[a-z0-9\-_.]{8,}`,
}

// NewFilter compiles the builtin rules plus cfg.Patterns.
func NewFilter(cfg FilterConfig) (*Filter, error) {
	f := &Filter{mask: strings.TrimSpace(cfg.Mask)}
	if f.mask == "" {
		f.mask = "[redacted]"
	}

	seen := map[string]bool{}
	for _, raw := range append(append([]string{}, builtinRules...), cfg.Patterns...) {
		raw = strings.TrimSpace(raw)
		if raw == "" || seen[raw] {
			continue
		}
		seen[raw] = true
		rule, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("telemetry: compile filter %q: %w", raw, err)
		}
		f.rules = append(f.rules, rule)
	}
	return f, nil
}

// MaskText replaces every matched segment of value with the mask.
func (f *Filter) MaskText(value string) string {
	if f == nil || value == "" {
		return value
	}
	for _, rule := range f.rules {
		value = rule.ReplaceAllString(value, f.mask)
	}
	return value
}

// MaskAttributes returns attrs with every string value masked. Non-string
// attributes pass through untouched.
func (f *Filter) MaskAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	if f == nil || len(attrs) == 0 {
		return attrs
	}
	out := make([]attribute.KeyValue, len(attrs))
	for i, attr := range attrs {
		switch attr.Value.Type() {
		case attribute.STRING:
			out[i] = attribute.String(string(attr.Key), f.MaskText(attr.Value.AsString()))
		case attribute.STRINGSLICE:
			values := attr.Value.AsStringSlice()
			masked := make([]string, len(values))
			for j, v := range values {
				masked[j] = f.MaskText(v)
			}
			out[i] = attribute.StringSlice(string(attr.Key), masked)
		default:
			out[i] = attr
		}
	}
	return out
}
