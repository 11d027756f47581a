package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/logicguard/logicguard/internal/analysis"
	"github.com/logicguard/logicguard/internal/auth"
	"github.com/logicguard/logicguard/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// CreateProjectRequest is the request body for POST /api/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// ArchiveProjectRequest is the request body for PUT /api/projects/:id/archive.
type ArchiveProjectRequest struct {
	Archived bool `json:"archived"`
}

// UpdateSettingsRequest is the request body for PUT /api/settings.
type UpdateSettingsRequest struct {
	DefaultLanguage    string `json:"default_language"`
	EmailNotifications bool   `json:"email_notifications"`
	Theme              string `json:"theme"`
}

func (s *Server) handleListProjects(c echo.Context) error {
	user, _ := auth.UserFrom(c)
	projects, err := s.store.ListProjects(c.Request().Context(), user.ID)
	if err != nil {
		s.logger.Error("failed to list projects", zap.Int64("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list projects")
	}
	return respondOK(c, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	user, _ := auth.UserFrom(c)

	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project name is required")
	}

	project, err := s.store.CreateProject(c.Request().Context(), &store.Project{
		UserID:      user.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Language:    analysis.NormalizeLanguage(req.Language),
	})
	if err != nil {
		s.logger.Error("failed to create project", zap.Int64("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create project")
	}
	return respondOK(c, http.StatusCreated, project)
}

func (s *Server) handleArchiveProject(c echo.Context) error {
	user, _ := auth.UserFrom(c)
	projectID, err := pathID(c)
	if err != nil {
		return err
	}

	var req ArchiveProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err = s.store.SetProjectArchived(c.Request().Context(), user.ID, projectID, req.Archived)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	}
	if err != nil {
		s.logger.Error("failed to archive project", zap.Int64("project_id", projectID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update project")
	}

	project, err := s.store.GetProject(c.Request().Context(), user.ID, projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load project")
	}
	return respondOK(c, http.StatusOK, project)
}

func (s *Server) handleProjectAnalyses(c echo.Context) error {
	user, _ := auth.UserFrom(c)
	projectID, err := pathID(c)
	if err != nil {
		return err
	}

	// The project must exist and belong to the caller before history is
	// listed against it.
	if _, err := s.store.GetProject(c.Request().Context(), user.ID, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load project")
	}

	analyses, err := s.store.ListAnalyses(c.Request().Context(), user.ID, projectID, queryLimit(c))
	if err != nil {
		s.logger.Error("failed to list project analyses", zap.Int64("project_id", projectID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list analyses")
	}
	return respondOK(c, http.StatusOK, analyses)
}

func (s *Server) handleListHistory(c echo.Context) error {
	user, _ := auth.UserFrom(c)

	var projectID int64
	if raw := c.QueryParam("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid project_id")
		}
		projectID = id
	}

	history, err := s.store.ListAnalyses(c.Request().Context(), user.ID, projectID, queryLimit(c))
	if err != nil {
		s.logger.Error("failed to list history", zap.Int64("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list history")
	}
	return respondOK(c, http.StatusOK, history)
}

func (s *Server) handleGetHistory(c echo.Context) error {
	user, _ := auth.UserFrom(c)
	id, err := pathID(c)
	if err != nil {
		return err
	}

	entry, err := s.store.GetAnalysis(c.Request().Context(), user.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "analysis not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load analysis")
	}
	return respondOK(c, http.StatusOK, entry)
}

func (s *Server) handleDeleteHistory(c echo.Context) error {
	user, _ := auth.UserFrom(c)
	id, err := pathID(c)
	if err != nil {
		return err
	}

	err = s.store.DeleteAnalysis(c.Request().Context(), user.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "analysis not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete analysis")
	}
	return respondOK(c, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Server) handleGetSettings(c echo.Context) error {
	user, _ := auth.UserFrom(c)
	settings, err := s.store.GetSettings(c.Request().Context(), user.ID)
	if err != nil {
		s.logger.Error("failed to load settings", zap.Int64("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load settings")
	}
	return respondOK(c, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	user, _ := auth.UserFrom(c)

	var req UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Theme != "light" && req.Theme != "dark" {
		return echo.NewHTTPError(http.StatusBadRequest, "theme must be 'light' or 'dark'")
	}

	settings := &store.Settings{
		UserID:             user.ID,
		DefaultLanguage:    analysis.NormalizeLanguage(req.DefaultLanguage),
		EmailNotifications: req.EmailNotifications,
		Theme:              req.Theme,
	}
	if err := s.store.UpdateSettings(c.Request().Context(), settings); err != nil {
		s.logger.Error("failed to update settings", zap.Int64("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update settings")
	}
	return respondOK(c, http.StatusOK, settings)
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// queryLimit parses the optional limit query parameter, clamped to a
// sane range.
func queryLimit(c echo.Context) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return defaultHistoryLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
