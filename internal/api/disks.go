package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"golang.org/x/exp/slices"

	"github.com/nasfand/nasfand/internal/disks"
)

func (service *restService) registerDiskEndpoints(rest *echo.Echo) {
	group := rest.Group("/api/disks")

	group.GET("/", service.getDisks)
	group.POST("/refresh/", service.refreshDisks)
	group.PUT("/active/", service.setActiveDisks)
}

// returns the current disk inventory including last known temperatures
func (service *restService) getDisks(c echo.Context) error {
	data := service.engine.Disks()
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

// re-scans the system for block devices and returns the new inventory
func (service *restService) refreshDisks(c echo.Context) error {
	service.engine.DetectDisks()
	data := service.engine.Disks()
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

type activeDisksRequest struct {
	ActiveDisks []string `json:"active_disks"`
}

// replaces the set of disks that drive the fan speed decision
func (service *restService) setActiveDisks(c echo.Context) error {
	var request activeDisksRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}

	known := service.engine.Disks()
	for _, id := range request.ActiveDisks {
		if !slices.ContainsFunc(known, func(disk disks.Disk) bool { return disk.ID == id }) {
			return returnBadRequest(c, fmt.Errorf("unknown disk id: %s", id))
		}
	}

	service.engine.SetActiveDisks(request.ActiveDisks)
	return c.JSONPretty(http.StatusOK, service.engine.Disks(), indentationChar)
}
