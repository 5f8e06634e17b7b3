package dto

import (
	"time"

	"github.com/devhub/devhub-api/internal/domain"
)

// CreateProjectUserRequest payload for registering a project account.
type CreateProjectUserRequest struct {
	Project  string `json:"project" validate:"required,max=255"`
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,base64"`
}

// ProjectUserResponse is the public view of a project user. The digest is never exposed.
type ProjectUserResponse struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"project_name"`
	Username    string    `json:"username"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewProjectUserResponse maps a domain user.
func NewProjectUserResponse(user *domain.ProjectUser) ProjectUserResponse {
	return ProjectUserResponse{
		ID:          user.ID,
		ProjectName: user.ProjectName,
		Username:    user.Username,
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
	}
}
