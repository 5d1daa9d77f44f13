package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sqlbay/sqlbay/internal/apperr"
	"github.com/sqlbay/sqlbay/internal/middleware"
	"github.com/sqlbay/sqlbay/internal/model"
	"github.com/sqlbay/sqlbay/internal/repository"
)

// ProjectHandler bundles dependencies for the /project CRUD endpoints.
type ProjectHandler struct {
	Projects repository.ProjectStore
}

func NewProjectHandler(projects repository.ProjectStore) *ProjectHandler {
	return &ProjectHandler{Projects: projects}
}

type projectReq struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// requireOwnedProject is the ownership guard used before any read or
// mutation of a project or its connection: NotFound when the id does not
// exist, Forbidden when it belongs to someone else.
func requireOwnedProject(ctx context.Context, store repository.ProjectStore, userID, projectID uint64) (*model.Project, error) {
	project, err := store.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Project not found.")
		}
		return nil, apperr.Internal(err)
	}
	if project.OwnerID != userID {
		return nil, apperr.Forbidden(apperr.CodeForbidden, "You do not have permission to access this project.")
	}
	return project, nil
}

// parseProjectID reads the :projectId path parameter.
func parseProjectID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("projectId"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest(apperr.CodeValidation, "Project id must be a positive integer.")
	}
	return id, nil
}

// List handles GET /project, newest first.
func (h *ProjectHandler) List(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	projects, err := h.Projects.ListByOwner(ctx, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": projects})
}

// Get handles GET /project/:projectId.
func (h *ProjectHandler) Get(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	projectID, err := parseProjectID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	project, err := requireOwnedProject(ctx, h.Projects, userID, projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"project": project})
}

// Create handles POST /project.
func (h *ProjectHandler) Create(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req projectReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return apperr.BadRequest(apperr.CodeValidation, "Project name is required.")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	project := &model.Project{Name: name, Description: req.Description, OwnerID: userID}
	if err := h.Projects.Create(ctx, project); err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"project": project})
}

// Update handles PATCH /project/:projectId.
func (h *ProjectHandler) Update(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	projectID, err := parseProjectID(c)
	if err != nil {
		return err
	}
	var req projectReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return apperr.BadRequest(apperr.CodeValidation, "Project name is required.")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	project, err := requireOwnedProject(ctx, h.Projects, userID, projectID)
	if err != nil {
		return err
	}
	project.Name = name
	if req.Description != nil {
		project.Description = req.Description
	}
	if err := h.Projects.Update(ctx, project); err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"project": project})
}

// Delete handles DELETE /project/:projectId.  Connection rows cascade
// with the project.
func (h *ProjectHandler) Delete(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	projectID, err := parseProjectID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := requireOwnedProject(ctx, h.Projects, userID, projectID); err != nil {
		return err
	}
	if err := h.Projects.Delete(ctx, projectID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Project deleted."})
}
