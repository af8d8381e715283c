// Package http provides the JSON and event-stream API.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every response shares one envelope so clients can show a notification
// without inspecting the status code.

package http

import (
	"encoding/json"
	"net/http"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is a user facing message attached to a response.
type Notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

type envelope struct {
	Data         any           `json:"data,omitempty"`
	Error        string        `json:"error,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.body.Data = v
	return b
}

// Error sets a machine readable error string.
func (b *JSONResponseBuilder) Error(msg string) *JSONResponseBuilder {
	b.body.Error = msg
	return b
}

// Notify attaches a notification.
func (b *JSONResponseBuilder) Notify(notifType NotificationType, message string, durationMs int) *JSONResponseBuilder {
	b.body.Notification = &Notification{Type: notifType, Message: message, Duration: durationMs}
	return b
}

// NotifySuccess is a convenience method for success notifications.
func (b *JSONResponseBuilder) NotifySuccess(message string) *JSONResponseBuilder {
	return b.Notify(NotificationSuccess, message, 3000)
}

// NotifyError is a convenience method for error notifications.
func (b *JSONResponseBuilder) NotifyError(message string) *JSONResponseBuilder {
	return b.Notify(NotificationError, message, 5000)
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a standard error response carrying an error
// notification with the same message.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Error(message).
		NotifyError(message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnauthorizedError creates a 401 Unauthorized error response.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
