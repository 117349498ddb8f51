package handler // declare the package name; contains HTTP handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Status is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Status(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "OK",
		"message":   "HRIS auth service is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
