package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlert(risk int) AlertPayload {
	return AlertPayload{
		ListingTitle:   "Macbook Pro M2 16gb",
		ListingURL:     "https://example.com/item/123456789",
		Price:          "350.00 EUR",
		EstimatedValue: "1450.00 EUR",
		RiskScore:      risk,
		RiskFactors:    []string{"Extreme price anomaly", "External contact in description"},
		Category:       "APPLE",
		Condition:      "USED",
		Segment:        "PRIME",
		Seller:         "u-9942",
	}
}

func TestDiscordNotifier_SendAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		alert      AlertPayload
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name:       "risk 92 uses red color",
			alert:      testAlert(92),
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
		},
		{
			name:       "risk 70 uses orange color",
			alert:      testAlert(70),
			statusCode: http.StatusNoContent,
			wantColor:  colorOrange,
		},
		{
			name:       "risk 55 uses yellow color",
			alert:      testAlert(55),
			statusCode: http.StatusNoContent,
			wantColor:  colorYellow,
		},
		{
			name:       "discord returns 429 rate limited",
			alert:      testAlert(85),
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			alert:      testAlert(85),
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL)
			err := d.SendAlert(context.Background(), &tt.alert)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Contains(t, embed.Title, tt.alert.ListingTitle)
			assert.Equal(t, tt.alert.ListingURL, embed.URL)
			assert.Contains(t, embed.Description, "Extreme price anomaly")

			// Verify fields.
			fieldMap := make(map[string]string)
			for _, f := range embed.Fields {
				fieldMap[f.Name] = f.Value
			}
			assert.Equal(t, fmt.Sprintf("%d/100", tt.alert.RiskScore), fieldMap["Risk"])
			assert.Equal(t, tt.alert.Price, fieldMap["Price"])
			assert.Equal(t, tt.alert.EstimatedValue, fieldMap["Est. Value"])
			assert.Equal(t, tt.alert.Seller, fieldMap["Seller"])
		})
	}
}

func TestDiscordNotifier_SendBatchAlert(t *testing.T) {
	t.Parallel()

	var received discordWebhookPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := json.NewDecoder(r.Body).Decode(&received)
		assert.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	alerts := make([]AlertPayload, 3)
	for i := range alerts {
		alerts[i] = testAlert(80 + i)
	}

	d := NewDiscordNotifier(srv.URL)
	err := d.SendBatchAlert(context.Background(), alerts)
	require.NoError(t, err)

	assert.Len(t, received.Embeds, 3)
}

func TestDiscordNotifier_SendBatchAlert_Overflow(t *testing.T) {
	t.Parallel()

	var received discordWebhookPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := json.NewDecoder(r.Body).Decode(&received)
		assert.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	alerts := make([]AlertPayload, 14)
	for i := range alerts {
		alerts[i] = testAlert(60 + i)
	}

	d := NewDiscordNotifier(srv.URL)
	require.NoError(t, d.SendBatchAlert(context.Background(), alerts))

	// 10 embeds plus one overflow summary.
	require.Len(t, received.Embeds, 11)
	assert.Contains(t, received.Embeds[10].Title, "4 more suspicious listings")
}
