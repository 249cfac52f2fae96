package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nasfand/nasfand/internal/fans"
)

func (service *restService) registerControlEndpoints(rest *echo.Echo) {
	group := rest.Group("/api/control")

	group.POST("/pwm/", service.setManualPwm)
	group.POST("/toggle/", service.toggleFanControl)

	rest.POST("/api/refresh/", service.refreshNow)
}

type manualPwmRequest struct {
	Pwm int `json:"pwm"`
}

// writes a PWM value directly to the fan, bypassing the curves. An
// enabled engine will override it on the next cycle.
func (service *restService) setManualPwm(c echo.Context) error {
	var request manualPwmRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}

	if request.Pwm < fans.MinPwmValue || request.Pwm > fans.MaxPwmValue {
		return returnBadRequest(c, fmt.Errorf(
			"pwm value must be in [%d..%d], got %d",
			fans.MinPwmValue, fans.MaxPwmValue, request.Pwm,
		))
	}

	if err := service.engine.SetManualPwm(request.Pwm); err != nil {
		return returnError(c, err)
	}

	return c.JSONPretty(http.StatusOK, &Result{
		Name:    "ok",
		Message: fmt.Sprintf("PWM set to %d", request.Pwm),
	}, indentationChar)
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

// turns automatic fan control on or off
func (service *restService) toggleFanControl(c echo.Context) error {
	var request toggleRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}

	service.engine.SetEnabled(request.Enabled)

	return c.JSONPretty(http.StatusOK, &Result{
		Name:    "ok",
		Message: fmt.Sprintf("fan control enabled: %t", request.Enabled),
	}, indentationChar)
}

// runs a full control cycle synchronously and returns the snapshot
func (service *restService) refreshNow(c echo.Context) error {
	data := service.engine.RefreshNow()
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}
