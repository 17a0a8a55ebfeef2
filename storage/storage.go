// Package storage defines the series store used by the test server and the
// selector matching it is queried with.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/and161185/victoria-client/model"
)

// Store keeps labeled time series and answers selector-based lookups.
type Store interface {
	Save(ctx context.Context, sample *model.MetricSample) error
	Delete(ctx context.Context, selectors []Selector) (int, error)
	Match(ctx context.Context, selectors []Selector) ([]model.MetricLabel, error)
	Range(ctx context.Context, sel Selector, start, end int64) ([]model.MetricSample, error)
}

// Matcher is one label condition inside a selector.
type Matcher struct {
	Label string
	Value string
	Re    *regexp.Regexp // set for =~ matchers
}

// Selector is a parsed series selector: a metric name (possibly empty) plus
// label matchers.
type Selector struct {
	Matchers []Matcher
}

// Matches reports whether the label set satisfies every matcher.
func (s Selector) Matches(l model.MetricLabel) bool {
	for _, m := range s.Matchers {
		v, ok := l[m.Label]
		if !ok {
			return false
		}
		if m.Re != nil {
			if !m.Re.MatchString(v) {
				return false
			}
		} else if v != m.Value {
			return false
		}
	}
	return true
}

var matcherRe = regexp.MustCompile(`^\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*(=~|=)\s*"((?:[^"\\]|\\.)*)"\s*$`)

// ParseSelector parses selectors of the form name, name{k="v",k2=~"re"} or
// {k="v"}. Only = and =~ matchers are supported; that covers what the
// import/delete/series round trips need.
func ParseSelector(expr string) (Selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}

	var sel Selector
	body := ""
	if i := strings.IndexByte(expr, '{'); i >= 0 {
		if !strings.HasSuffix(expr, "}") {
			return Selector{}, fmt.Errorf("unterminated selector %q", expr)
		}
		body = expr[i+1 : len(expr)-1]
		expr = strings.TrimSpace(expr[:i])
	}
	if expr != "" {
		sel.Matchers = append(sel.Matchers, Matcher{Label: model.NameLabel, Value: expr})
	}

	if strings.TrimSpace(body) == "" {
		if len(sel.Matchers) == 0 {
			return Selector{}, fmt.Errorf("selector matches nothing")
		}
		return sel, nil
	}

	for _, part := range splitMatchers(body) {
		groups := matcherRe.FindStringSubmatch(part)
		if groups == nil {
			return Selector{}, fmt.Errorf("bad matcher %q", part)
		}
		m := Matcher{Label: groups[1], Value: unescape(groups[3])}
		if groups[2] == "=~" {
			re, err := regexp.Compile("^(?:" + m.Value + ")$")
			if err != nil {
				return Selector{}, fmt.Errorf("bad regexp in matcher %q: %w", part, err)
			}
			m.Re = re
		}
		sel.Matchers = append(sel.Matchers, m)
	}
	return sel, nil
}

// splitMatchers splits on commas outside quoted values.
func splitMatchers(body string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	escaped := false
	for _, r := range body {
		switch {
		case escaped:
			escaped = false
			cur.WriteRune(r)
		case r == '\\' && inQuotes:
			escaped = true
			cur.WriteRune(r)
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}
