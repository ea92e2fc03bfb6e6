// Package handlers implements the HTTP handlers for the fraudlens API.
// Business endpoints register through Huma; health endpoints are plain Echo.
package handlers

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}
