package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nasfand/nasfand/internal/controller"
)

const indentationChar = "  "

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

type restService struct {
	engine *controller.Engine
}

func CreateRestService(engine *controller.Engine) *echo.Echo {
	service := &restService{engine: engine}

	echoRest := echo.New()
	echoRest.HideBanner = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())

	echoRest.Use(middleware.Logger())
	echoRest.Use(middleware.Recover())
	echoRest.Use(echoprometheus.NewMiddleware("nasfand"))

	echoRest.GET("/alive/", isAlive)

	service.registerStatusEndpoints(echoRest)
	service.registerConfigEndpoints(echoRest)
	service.registerDiskEndpoints(echoRest)
	service.registerControlEndpoints(echoRest)

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}

// return a "bad request" message for rejected input
func returnBadRequest(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Bad Request",
		Message: e.Error(),
	}, indentationChar)
}
