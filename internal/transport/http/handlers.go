package http

import (
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/service/engine"
	"github.com/sandevgo/ragmemory/pkg/log"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

const profilePage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Profile of %s</title></head>
<body>
%s
</body>
</html>
`

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Ping(c.Request().Context()))
}

func (s *Server) handleQuery(c echo.Context) error {
	var req engine.QueryRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	resp, err := s.engine.Query(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpload(c echo.Context) error {
	var req engine.UploadRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	resp, err := s.engine.Upload(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleProfile(c echo.Context) error {
	resp, err := s.engine.Profile(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleProfileHTML(c echo.Context) error {
	userID := c.Param("user_id")
	body, err := s.engine.RenderProfileHTML(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, fmt.Sprintf(profilePage, html.EscapeString(userID), body))
}

func (s *Server) handleHistory(c echo.Context) error {
	resp, err := s.engine.RecentHistory(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func bindError(err error) error {
	return &core.Error{
		Code:    http.StatusBadRequest,
		Message: "invalid request body",
		Err:     fmt.Errorf("%w: %v", core.ErrInvalidRequest, err),
	}
}

// handleError renders every failure as {success:false, error, code}. Internal
// details only go to the log.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    int
		message string
		he      *echo.HTTPError
	)
	if errors.As(err, &he) {
		code = he.Code
		message = http.StatusText(code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
	} else {
		code = core.StatusFor(err)
		message = core.PublicMessage(err)
	}

	logger := log.FromCtx(c.Request().Context())
	if code >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("code", code).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("code", code).Msg("request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, ErrorResponse{Success: false, Error: message, Code: code})
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to write error response")
	}
}
