// Package validate checks generated dashboards against the set of metrics
// the application actually exports: every query must be valid PromQL and
// reference only known metric or recording rule names.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation findings. Errors fail generation; warnings
// only get printed.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation passed.
func (r Result) Ok() bool { return len(r.Errors) == 0 }

// Dashboard validates every panel query in the built dashboard.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result
	for i := range dash.Panels {
		p := &dash.Panels[i]
		if p.RowPanel != nil {
			for j := range p.RowPanel.Panels {
				checkPanel(&p.RowPanel.Panels[j], known, &res)
			}
		}
		if p.Panel != nil {
			checkPanel(p.Panel, known, &res)
		}
	}
	return res
}

func checkPanel(p *dashboard.Panel, known map[string]bool, res *Result) {
	title := "(untitled)"
	if p.Title != nil {
		title = *p.Title
	}

	for _, target := range p.Targets {
		expr, ok := exprOf(target)
		if !ok {
			continue
		}

		parsed, err := parser.ParseExpr(expr)
		if err != nil {
			res.Errors = append(res.Errors,
				fmt.Sprintf("panel %q: invalid PromQL %q: %v", title, expr, err))
			continue
		}

		//nolint:errcheck // inspector never returns an error
		parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
			vs, ok := node.(*parser.VectorSelector)
			if !ok || vs.Name == "" {
				return nil
			}
			if !knownMetric(vs.Name, known) {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("panel %q references unknown metric %q", title, vs.Name))
			}
			return nil
		})
	}
}

// exprOf digs the PromQL expression out of an opaque dataquery value.
func exprOf(target any) (string, bool) {
	raw, err := json.Marshal(target)
	if err != nil {
		return "", false
	}
	var q struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(raw, &q); err != nil || q.Expr == "" {
		return "", false
	}
	return q.Expr, true
}

// knownMetric matches the name itself or, for histogram series, its base
// metric without the _bucket/_sum/_count suffix.
func knownMetric(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}
