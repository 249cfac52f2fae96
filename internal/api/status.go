package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (service *restService) registerStatusEndpoints(rest *echo.Echo) {
	group := rest.Group("/api/status")

	group.GET("/", service.getStatus)
}

// returns the current engine snapshot
func (service *restService) getStatus(c echo.Context) error {
	data := service.engine.Status()
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}
