package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nasfand/nasfand/internal/api"
	"github.com/nasfand/nasfand/internal/configuration"
	"github.com/nasfand/nasfand/internal/controller"
	"github.com/nasfand/nasfand/internal/fans"
	"github.com/nasfand/nasfand/internal/hwmon"
	"github.com/nasfand/nasfand/internal/persistence"
	"github.com/nasfand/nasfand/internal/sensors"
	"github.com/nasfand/nasfand/internal/statistics"
	"github.com/nasfand/nasfand/internal/ui"
)

func RunDaemon() {
	if getProcessOwner() != "root" {
		ui.Fatal("Fan control requires root permissions to be able to modify fan speeds, please run nasfand as root")
	}

	pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to initialize database: %v", err)
	}

	hwmon.LoadIt87Module()

	engine := initializeEngine(pers)

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		// === fan control loop
		g.Add(func() error {
			err := engine.Run(ctx)
			ui.Info("Fan control loop stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error running fan control loop: %v", err)
			}
		})
	}
	{
		enabled := configuration.CurrentConfig.Api.Enabled
		if enabled {
			// === REST API
			restService := api.CreateRestService(engine)

			g.Add(func() error {
				host := configuration.CurrentConfig.Api.Host
				port := configuration.CurrentConfig.Api.Port
				addr := fmt.Sprintf("%s:%d", host, port)
				if err := restService.Start(addr); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start REST api endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping REST api server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := restService.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping REST api server: " + err.Error())
				} else {
					ui.Info("REST api server stopped.")
				}
			})
		}
	}
	{
		enabled := configuration.CurrentConfig.Statistics.Enabled
		if enabled {
			// === Prometheus Exporter
			statistics.Register(statistics.NewControllerCollector(engine))

			port := configuration.CurrentConfig.Statistics.Port
			if port <= 0 || port >= 65535 {
				port = 9000
			}
			addr := fmt.Sprintf(":%d", port)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: addr, Handler: mux}

			g.Add(func() error {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping statistics server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := server.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping statistics server: " + err.Error())
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received SIGTERM signal, exiting...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// initializeEngine wires sensors, actuator, notifier and the persisted
// configuration into a ready-to-run engine.
func initializeEngine(pers persistence.Persistence) *controller.Engine {
	config := configuration.CurrentConfig.FanControl

	// a previously persisted configuration takes precedence over the
	// bootstrap defaults from the config file
	stored, err := pers.LoadFanControlConfig()
	if err != nil {
		ui.Warning("Unable to load persisted configuration, using defaults: %v", err)
	} else if stored != nil {
		config = *stored
	}

	port := sensors.NewCmdPort()
	actuator := fans.NewHwMonPwm(config.PwmControlFile, config.PwmEnableFile)
	notifier := ui.NewPushNotifier()

	return controller.NewEngine(config, pers, port, actuator, notifier)
}

func getProcessOwner() string {
	stdout, err := exec.Command("ps", "-o", "user=", "-p", strconv.Itoa(os.Getpid())).Output()
	if err != nil {
		ui.Fatal("Error checking process owner: %v", err)
		os.Exit(1)
	}
	return strings.TrimSpace(string(stdout))
}
