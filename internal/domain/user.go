package domain

import "time"

// ProjectUser is a registered project account allowed to obtain credentials.
type ProjectUser struct {
	ID           string
	ProjectName  string
	Username     string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}
