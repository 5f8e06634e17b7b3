package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/devhub/devhub-api/internal/api/dto"
	"github.com/devhub/devhub-api/internal/service"
)

// ProjectUsersHandler manages project accounts.
type ProjectUsersHandler struct {
	users *service.ProjectUserService
}

// NewProjectUsersHandler constructs handler.
func NewProjectUsersHandler(users *service.ProjectUserService) *ProjectUsersHandler {
	return &ProjectUsersHandler{users: users}
}

// List handles GET /project_users.
func (h *ProjectUsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.ProjectUserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.NewProjectUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"message": "List of project users", "users": resp})
}

// Get handles GET /project_users/:username.
func (h *ProjectUsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewProjectUserResponse(user)})
}

// Create handles POST /project_users.
func (h *ProjectUsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProjectUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), service.CreateProjectUserInput{
		ProjectName:       req.Project,
		Username:          req.Username,
		EncryptedPassword: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

// Delete handles DELETE /project_users/:username.
func (h *ProjectUsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), c.Params("username")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Activate handles POST /project_users/:username/activate.
func (h *ProjectUsersHandler) Activate(c *fiber.Ctx) error {
	if err := h.users.Activate(c.UserContext(), c.Params("username")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "User activated"})
}

// Deactivate handles POST /project_users/:username/deactivate.
func (h *ProjectUsersHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.users.Deactivate(c.UserContext(), c.Params("username")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "User deactivated"})
}
