package cli

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"journey-tracker/internal/api"
	"journey-tracker/internal/config"
	"journey-tracker/internal/journey"
	"journey-tracker/internal/metrics"
	"journey-tracker/internal/planner"
	"journey-tracker/internal/publisher"
	"journey-tracker/internal/registry"
)

func NewRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Reconcile the registry and start polling all configured routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(app)
		},
	}
}

func run(app *App) error {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if app.RoutesPath != "" {
		cfg.RoutesFile = app.RoutesPath
	}

	routes, err := config.LoadRoutes(cfg.RoutesFile)
	if err != nil {
		log.Fatalf("routes error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics setup
	var mcol *metrics.Collector
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.PollInterval)
		metricsSrv = mcol.Serve(cfg.MetricsAddr)
	}

	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	defer pub.Close()

	// Entity registry: Postgres when configured, in-memory otherwise.
	var reg registry.Registry
	if cfg.DatabaseURL != "" {
		pg, err := registry.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("registry error: %v", err)
		}
		defer pg.Close()
		reg = pg
	} else {
		log.Printf("no DATABASE_URL set, using in-memory registry")
		reg = registry.NewMemory()
	}

	cli := planner.NewHTTPClient(cfg.PlannerBaseURL, cfg.PlannerTokenURL, cfg.PlannerClientID, cfg.PlannerSecret)
	if err := cli.RefreshCredentials(ctx); err != nil {
		// The first poll cycle will trigger another refresh.
		log.Printf("initial credential fetch failed: %v", err)
	}

	// Stale entities must be gone before their replacements start polling.
	if err := journey.Reconcile(ctx, reg, routes.Departures, routes.JourneyLists); err != nil {
		log.Fatalf("reconcile error: %v", err)
	}

	pauses := journey.NewPauseStore()

	var units []journey.PollUnit
	var trackers []*journey.Tracker
	for i, def := range routes.Departures {
		t, err := journey.NewTracker(ctx, cli, def, i, cfg.PollInterval, pauses, pub, mcol, cfg.Location)
		if err != nil {
			// Fatal to this one route only; siblings keep running.
			log.Printf("skipping route %s -> %s: %v", def.From, def.Destination, err)
			continue
		}
		if err := reg.Ensure(ctx, registry.Entry{Key: t.Key(), Kind: registry.KindJourney, Name: t.Name()}); err != nil {
			log.Fatalf("register %s: %v", t.Key(), err)
		}
		if err := reg.Ensure(ctx, registry.Entry{Key: journey.PauseKey(t.Key()), Kind: registry.KindPause, Name: "Pause " + t.Name()}); err != nil {
			log.Fatalf("register pause for %s: %v", t.Key(), err)
		}
		trackers = append(trackers, t)
		units = append(units, t)
	}

	var scanners []*journey.WindowScanner
	for i, def := range routes.JourneyLists {
		s, err := journey.NewWindowScanner(def, i, cfg.PollInterval, cli, pub, mcol, cfg.Location)
		if err != nil {
			log.Printf("skipping journey list %s -> %s: %v", def.From, def.Destination, err)
			continue
		}
		if err := reg.Ensure(ctx, registry.Entry{Key: s.Key(), Kind: registry.KindWindow, Name: s.Name()}); err != nil {
			log.Fatalf("register %s: %v", s.Key(), err)
		}
		scanners = append(scanners, s)
		units = append(units, s)
	}

	mgr := journey.NewManager(mcol, cfg.Location)
	mgr.Start(ctx, units)

	apiSrv := api.NewServer(trackers, scanners, pauses).Serve(cfg.APIAddr)

	// Block until context cancelled
	<-ctx.Done()

	mgr.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Println("shutdown complete")
	return nil
}

// wrapPublisherMetrics adapts the Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
