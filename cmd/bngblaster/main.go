package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/aleheux-tc/bngblaster/config"
	"github.com/aleheux-tc/bngblaster/core"
	"github.com/aleheux-tc/bngblaster/internal/kernel"
	"github.com/aleheux-tc/bngblaster/internal/lockfile"
	"github.com/aleheux-tc/bngblaster/internal/logging"
	"github.com/aleheux-tc/bngblaster/internal/observability"
	"github.com/aleheux-tc/bngblaster/ldp"
	"github.com/aleheux-tc/bngblaster/packetio"
	"github.com/aleheux-tc/bngblaster/timer"
)

func main() {
	configPath := flag.String("config", "bngblaster.json", "Path to the JSON configuration file")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	lockForce := flag.Bool("force", false, "Take over interface lock files held by live processes")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.Err(err))
		os.Exit(1)
	}

	tracingShutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	engine := timer.New(clock.New())
	locks := lockfile.NewManager(cfg.Interfaces.LockDir, cfg.Interfaces.LockForce || *lockForce, log)

	registry := core.NewRegistry(core.RegistryDeps{
		Locks:    locks,
		Kernel:   kernel.NewResolver(),
		Timers:   engine,
		Backends: packetio.New,
		Log:      log,
		Metrics:  collector,
	})

	// LAG groups exist before any member link registers.
	for _, group := range cfg.Interfaces.LAGGroups {
		if _, err := registry.LAGs().Add(group); err != nil {
			log.Error(ctx, "LAG group creation failed", logging.Err(err))
			os.Exit(1)
		}
	}

	instances := make(map[uint32]*ldp.Instance, len(cfg.LDP))
	for _, inst := range cfg.LDP {
		instances[inst.InstanceID] = ldp.NewInstance(ldp.Config{
			InstanceID:    inst.InstanceID,
			LSRID:         inst.LSRID,
			HelloInterval: inst.HelloInterval,
			HoldTime:      inst.HoldTime,
		}, engine, log, collector)
	}

	for _, link := range cfg.Interfaces.Links {
		iface, err := registry.Register(link.Name, cfg.LinkConfig(link))
		if err != nil {
			log.Error(ctx, "interface registration failed", logging.Err(err))
			registry.UnlockAll()
			os.Exit(1)
		}
		if link.LDPInstanceID != 0 {
			if _, err := instances[link.LDPInstanceID].Attach(iface); err != nil {
				log.Error(ctx, "LDP attach failed", logging.Err(err))
				registry.UnlockAll()
				os.Exit(1)
			}
		}
	}

	log.Info(ctx, "blaster started",
		logging.Int("interfaces", registry.Len()),
		logging.Int("ldp_instances", len(instances)))

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go engine.Run(runCtx)
	<-runCtx.Done()

	log.Info(ctx, "shutting down")
	for _, inst := range instances {
		inst.Shutdown()
	}
	registry.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), tracingShutdown, log)
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
