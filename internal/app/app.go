// Package app wires the daemon's adapters and services together and
// owns their run loop. It acts as the Facade for the whole process,
// mirroring the teacher's internal/app.Application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sonic-net/sonic-pacd/internal/adapters/audit"
	"github.com/sonic-net/sonic-pacd/internal/adapters/httpapi"
	"github.com/sonic-net/sonic-pacd/internal/adapters/nim"
	"github.com/sonic-net/sonic-pacd/internal/adapters/platformconfig"
	"github.com/sonic-net/sonic-pacd/internal/adapters/radiusclient"
	"github.com/sonic-net/sonic-pacd/internal/adapters/wsfeed"
	"github.com/sonic-net/sonic-pacd/internal/config"
	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/sonic-net/sonic-pacd/internal/core/services/authmgr"
	"github.com/sonic-net/sonic-pacd/internal/core/services/bus"
	"github.com/sonic-net/sonic-pacd/internal/core/services/mab"
	"github.com/sonic-net/sonic-pacd/internal/core/services/registry"
	"github.com/sonic-net/sonic-pacd/internal/core/services/timer"
	"github.com/sonic-net/sonic-pacd/internal/core/services/vlancache"
	"github.com/sonic-net/sonic-pacd/internal/telemetry"
)

// busCapacity bounds the number of not-yet-drained bus events (spec.md
// section 4.6); the teacher's worker pools size similarly off a fixed
// constant rather than an env-tunable.
const busCapacity = 4096

// nimPollInterval is how often the NIM adapter re-enumerates host
// interfaces to synthesize link/admin-state change notifications.
const nimPollInterval = 5 * time.Second

// Application is the Facade for the whole daemon: it owns every
// collaborator's concrete type and coordinates their lifecycles.
type Application struct {
	Config *config.Config

	AuthMgr *authmgr.AuthMgr
	Bus     *bus.Bus
	NIM     *nim.Adapter
	Feed    *wsfeed.Feed
	Audit   *audit.Adapter
	HTTP    *httpapi.Server

	httpServer *http.Server
	wsServer   *http.Server

	log *slog.Logger
}

// New builds an Application from cfg and bootstraps every collaborator.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
		log:    slog.Default(),
	}
	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

// bootstrap performs the init sequence: telemetry, audit storage,
// registry/vlancache/platform/timer/bus, the RADIUS-backed MAB method
// plugin, the orchestrator, and the HTTP/WebSocket adapters, in that
// order so later stages can close over the collaborators built before
// them.
func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	auditAdapter, err := audit.New(app.Config.AuditDBPath)
	if err != nil {
		return fmt.Errorf("audit log init: %w", err)
	}
	app.Audit = auditAdapter

	platform := platformconfig.New(app.log)
	reg := registry.New()
	macIndex := registry.NewMacIndex()
	vlanCache := vlancache.New(platform)
	wheel := timer.New()
	messageBus := bus.New(busCapacity)
	app.Bus = messageBus
	app.NIM = nim.New()

	feed := wsfeed.New(app.log)
	app.Feed = feed

	radiusClient := radiusclient.New(app.Config.RadiusServer, app.Config.RadiusSecret, app.log)
	radiusClient.SetNASInfo(app.Config.NASIP, app.Config.NASIdentifier)

	var switchMAC domain.MACAddr
	if app.Config.SwitchMAC != "" {
		parsed, err := domain.ParseMAC(app.Config.SwitchMAC)
		if err != nil {
			return fmt.Errorf("switch-mac: %w", err)
		}
		switchMAC = parsed
	}

	// authMgr doesn't exist until authmgr.New returns below, but mab.New
	// needs its HandleMethodResult as the onResult callback right now; a
	// forwarding closure over this pointer breaks the cycle.
	var authMgr *authmgr.AuthMgr
	mabAuth := mab.New(mab.Config{
		Scheme:        radiusScheme(app.Config.RadiusScheme),
		NASIP:         app.Config.NASIP,
		NASIPv6:       app.Config.NASIPv6,
		NASIdentifier: app.Config.NASIdentifier,
		SwitchMAC:     switchMAC,
	}, radiusClient, func(key domain.LogicalPortKey, event domain.SmEvent, attrs ports.RadiusAttrs) {
		authMgr.HandleMethodResult(key, event, attrs)
	})

	authMgr = authmgr.New(authmgr.Deps{
		Registry:  reg,
		MacIndex:  macIndex,
		VlanCache: vlanCache,
		Platform:  platform,
		Timer:     wheel,
		Bus:       messageBus,
		Methods: map[domain.AuthMethod]ports.MethodPlugin{
			domain.MethodMAB: mabAuth,
		},
		Logger:       app.log,
		OnTransition: feed.OnTransition,
	})
	app.AuthMgr = authMgr

	app.NIM.RegisterIntfChangeCallback(app.handleIntfChange)

	app.HTTP = httpapi.New(authMgr, app.log, auditAdapter)

	return nil
}

// radiusScheme maps the configured scheme name to mab's PasswordScheme,
// defaulting to EAP-MD5 for anything unrecognized.
func radiusScheme(name string) mab.PasswordScheme {
	switch name {
	case "chap":
		return mab.SchemeCHAP
	case "pap":
		return mab.SchemePAP
	default:
		return mab.SchemeEAPMD5
	}
}

// handleIntfChange registers newly discovered physical ports with the
// orchestrator and forwards link-state changes into the FSM, mirroring
// how SONiC's NIM notifies the real PAC daemon (spec.md section 6).
func (app *Application) handleIntfChange(evt ports.IntfChangeEvent) {
	switch evt.Kind {
	case ports.IntfCreated:
		ifname, _ := app.NIM.IntfName(evt.PhysPort)
		app.AuthMgr.RegisterPort(evt.PhysPort, ifname, evt.PhysPort)
	case ports.IntfLinkStateChanged:
		app.AuthMgr.LinkStateChange(evt.PhysPort, evt.Link == ports.LinkUp)
	}
}

// Run starts every collaborator's background work and blocks until ctx
// is cancelled or a component fails, then shuts everything down. It
// uses golang.org/x/sync/errgroup, the idiomatic fan-out/fan-in
// supervisor this dependency pack reaches for over a hand-rolled
// error channel.
func (app *Application) Run(ctx context.Context) error {
	app.log.Info("starting pacd", "http-addr", app.Config.HTTPAddr, "ws-addr", app.Config.WSAddr)

	done := make(chan struct{})

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		app.AuthMgr.Run(done)
		return nil
	})

	eg.Go(func() error {
		app.NIM.Run(done, nimPollInterval)
		return nil
	})

	app.httpServer = &http.Server{Addr: app.Config.HTTPAddr, Handler: app.HTTP.Router()}
	eg.Go(func() error {
		app.log.Info("admin HTTP server listening", "addr", app.Config.HTTPAddr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	app.wsServer = &http.Server{Addr: app.Config.WSAddr, Handler: http.HandlerFunc(app.Feed.HandleWebSocket)}
	eg.Go(func() error {
		app.log.Info("live transition feed listening", "addr", app.Config.WSAddr)
		if err := app.wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ws server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		defer close(done)
		return app.cleanup()
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// cleanup shuts down the listening servers so Run's errgroup can drain.
func (app *Application) cleanup() error {
	app.log.Info("shutting down pacd")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if app.httpServer != nil {
		_ = app.httpServer.Shutdown(shutdownCtx)
	}
	if app.wsServer != nil {
		_ = app.wsServer.Shutdown(shutdownCtx)
	}
	if app.Audit != nil {
		_ = app.Audit.Close()
	}
	return nil
}
