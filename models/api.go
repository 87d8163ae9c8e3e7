package models

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// MessageResponse is a generic success message body
type MessageResponse struct {
	Message string `json:"message"`
}
