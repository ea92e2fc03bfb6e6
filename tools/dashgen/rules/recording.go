package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "fraudlens-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "fraudlens-recording",
					Rules: []Rule{
						{
							Record: "fraudlens:http_requests:rate5m",
							Expr:   `sum(rate(fraudlens_http_requests_total[5m]))`,
						},
						{
							Record: "fraudlens:http_errors:rate5m",
							Expr:   `sum(rate(fraudlens_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "fraudlens:poll_listings:rate5m",
							Expr:   `rate(fraudlens_poll_listings_total[5m])`,
						},
						{
							Record: "fraudlens:poll_errors:rate5m",
							Expr:   `rate(fraudlens_poll_errors_total[5m])`,
						},
						{
							Record: "fraudlens:marketplace_api_calls:rate5m",
							Expr:   `sum(rate(fraudlens_marketplace_api_calls_total[5m])) by (endpoint)`,
						},
					},
				},
			},
		},
	}
}
