package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/logicguard/logicguard/internal/analysis"
	"github.com/logicguard/logicguard/internal/auth"
	"github.com/logicguard/logicguard/internal/provider"
)

// AnalyzeRequest is the request body for POST /api/analyze.
type AnalyzeRequest struct {
	Code      string `json:"code"`
	Language  string `json:"language"`
	ProjectID int64  `json:"project_id,omitempty"`
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Code        string              `json:"code"`
	Language    string              `json:"language"`
	Question    string              `json:"question"`
	ChatHistory []analysis.ChatTurn `json:"chat_history"`
}

// ChatResponse is the data payload for POST /api/chat.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// HealthResponse is the data payload for GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return respondOK(c, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleSupportedLanguages(c echo.Context) error {
	return respondOK(c, http.StatusOK, analysis.SupportedLanguages())
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid analyze request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	areq := &analysis.Request{
		Code:      req.Code,
		Language:  req.Language,
		ProjectID: req.ProjectID,
	}
	if user, ok := auth.UserFrom(c); ok {
		areq.UserID = user.ID
	}

	result, err := s.analyzer.Analyze(c.Request().Context(), areq)
	if err != nil {
		return analysisHTTPError(err)
	}
	return respondOK(c, http.StatusOK, result)
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	answer, err := s.analyzer.Chat(c.Request().Context(), &analysis.ChatRequest{
		Code:     req.Code,
		Language: req.Language,
		Question: req.Question,
		History:  req.ChatHistory,
	})
	if err != nil {
		return analysisHTTPError(err)
	}
	return respondOK(c, http.StatusOK, ChatResponse{Answer: answer})
}

// analysisHTTPError maps pipeline errors onto the HTTP error taxonomy:
// input errors are the caller's fault (400), everything upstream is a bad
// gateway (502) with a message that tells the caller whether retrying is
// worthwhile.
func analysisHTTPError(err error) *echo.HTTPError {
	switch {
	case analysis.IsInputError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, analysis.ErrInvalidResponse):
		return echo.NewHTTPError(http.StatusBadGateway, "invalid AI response")
	case provider.IsAuth(err):
		return echo.NewHTTPError(http.StatusBadGateway, "AI provider rejected the configured credentials")
	case provider.IsTransient(err):
		return echo.NewHTTPError(http.StatusBadGateway, "AI provider is temporarily unavailable, try again shortly")
	default:
		return echo.NewHTTPError(http.StatusBadGateway, "AI provider request failed")
	}
}
