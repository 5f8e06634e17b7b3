package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded     EventType = "login_succeeded"
	EventLoginFailed        EventType = "login_failed"
	EventLoggedOut          EventType = "logged_out"
	EventLogoutFailed       EventType = "logout_failed"
	EventCredentialsSwept   EventType = "credentials_swept"
	EventProjectUserCreated EventType = "project_user_created"
)

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginFailedPayload records why a login was rejected. Never returned to clients.
type LoginFailedPayload struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// CredentialsSweptPayload payload.
type CredentialsSweptPayload struct {
	Count int64 `json:"count"`
}

// ProjectUserCreatedPayload payload.
type ProjectUserCreatedPayload struct {
	ProjectName string `json:"project_name"`
	Username    string `json:"username"`
}
