package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// fraudlens operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "fraudlens-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "fraudlens-alerts",
					Rules: []Rule{
						{
							Alert: "FraudlensDown",
							Expr:  `absent(up{job="fraudlens"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "FraudLens is down",
								"description": "The fraudlens job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "FraudlensReadinessDown",
							Expr:  `fraudlens_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "FraudLens readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes, usually a lost database connection.",
							},
						},
						{
							Alert: "FraudlensHighErrorRate",
							Expr:  `fraudlens:http_errors:rate5m / fraudlens:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on FraudLens",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "FraudlensPollErrors",
							Expr:  `fraudlens:poll_errors:rate5m > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Poll cycle errors detected",
								"description": "The marketplace poll cycle has been producing errors for more than 5 minutes.",
							},
						},
						{
							Alert: "FraudlensCoolingDown",
							Expr:  `increase(fraudlens_marketplace_cooldowns_total[15m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Marketplace API blocked us",
								"description": "The marketplace returned 429/403 and polling is cooling down. Repeated cool-downs mean the rate limit is too aggressive.",
							},
						},
						{
							Alert: "FraudlensStatsCold",
							Expr:  `fraudlens_stats_table_cells == 0`,
							For:   "30m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Reference stats table is empty",
								"description": "The scorer has been running without market statistics for 30 minutes; price anomaly detection is disabled.",
							},
						},
						{
							Alert: "FraudlensUnscoredBacklog",
							Expr:  `fraudlens_listings_unscored > 1000`,
							For:   "15m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Unscored listings backlog is growing",
								"description": "More than 1000 listings are waiting for a risk score. The re-scoring pass is not keeping up.",
							},
						},
						{
							Alert: "FraudlensNotificationFailures",
							Expr:  `increase(fraudlens_notification_failures_total[5m]) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more alert notifications (Discord webhooks) have failed to send.",
							},
						},
					},
				},
			},
		},
	}
}
