package http

import "github.com/labstack/echo/v4"

// envelope is the uniform response wrapper: {success:true, data} on the
// happy path, {success:false, error} on any failure.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Error: message})
}
