package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/qdm12/reprint"
)

func (service *restService) registerConfigEndpoints(rest *echo.Echo) {
	group := rest.Group("/api/config")

	group.GET("/", service.getConfig)
	group.PUT("/", service.updateConfig)
}

// returns the active fan control configuration
func (service *restService) getConfig(c echo.Context) error {
	data := reprint.This(service.engine.Config())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

// applies a partial configuration update. Unknown keys and invalid
// values reject the whole request.
func (service *restService) updateConfig(c echo.Context) error {
	var data map[string]interface{}
	if err := c.Bind(&data); err != nil {
		return returnBadRequest(c, err)
	}

	if err := service.engine.UpdateConfig(data); err != nil {
		return returnBadRequest(c, err)
	}

	return c.JSONPretty(http.StatusOK, service.engine.Config(), indentationChar)
}
