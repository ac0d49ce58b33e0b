package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/locvowork/fleet_management_sample/internal/logger"
)

// ==================== Response Types ====================

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func ResponseJSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{Success: true, Data: data})
}

// ResponseError logs err and answers with message. The error text is
// included only for client errors.
func ResponseError(c echo.Context, status int, message string, err error) error {
	resp := APIResponse{Success: false, Message: message}
	if err != nil {
		logger.ErrorLog(c.Request().Context(), message, err)
		if status < 500 {
			resp.Error = err.Error()
		}
	}
	return c.JSON(status, resp)
}
