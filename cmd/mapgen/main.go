package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/strategic-map/core"
	"github.com/signalsfoundry/strategic-map/internal/logging"
	"github.com/signalsfoundry/strategic-map/internal/observability"
	"github.com/signalsfoundry/strategic-map/internal/render/svg"
	"github.com/signalsfoundry/strategic-map/kb"
	"github.com/signalsfoundry/strategic-map/timectrl"
)

// Config is the parsed command line.
type Config struct {
	Map core.Config

	CitiesPath  string
	OutPath     string
	Animate     time.Duration
	Tick        time.Duration
	RealTime    bool
	FramesDir   string
	FrameEvery  int
	MetricsAddr string
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error(ctx, "mapgen failed", logging.Err(err))
		os.Exit(1)
	}
}

func parseFlags(args []string) (Config, error) {
	def := core.DefaultConfig()
	fs := flag.NewFlagSet("mapgen", flag.ContinueOnError)

	var cfg Config
	fs.StringVar(&cfg.Map.Seed, "seed", "", "generation seed; blank picks a random 6-digit seed")
	fs.Float64Var(&cfg.Map.Density, "density", def.Density, "grid marker density (0-8)")
	fs.IntVar(&cfg.Map.Links, "links", def.Links, "target number of concurrent link arcs (0-64)")
	fs.Float64Var(&cfg.Map.Flicker, "flicker", def.Flicker, "screen flicker intensity (0-1)")
	fs.IntVar(&cfg.Map.Orbits, "orbits", def.Orbits, "number of satellite ground tracks (0-8)")
	fs.StringVar(&cfg.CitiesPath, "cities", "", "path to a JSON city catalog; built-in capitals when empty")
	fs.StringVar(&cfg.OutPath, "out", "-", "where to write the final SVG frame; - for stdout")
	fs.DurationVar(&cfg.Animate, "animate", 0, "animation time to run before writing the final frame; 0 writes the static scene")
	fs.DurationVar(&cfg.Tick, "tick", 16*time.Millisecond, "animation tick interval")
	fs.BoolVar(&cfg.RealTime, "realtime", false, "tick at wall-clock pace instead of as fast as possible")
	fs.StringVar(&cfg.FramesDir, "frames-dir", "", "directory to write intermediate SVG frames into")
	fs.IntVar(&cfg.FrameEvery, "frame-every", 1, "write every Nth tick to -frames-dir")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics; disabled when empty")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.FrameEvery < 1 {
		cfg.FrameEvery = 1
	}
	cfg.Map = cfg.Map.Normalize()
	return cfg, nil
}

// run generates the map, optionally animates it, and writes the final frame.
func run(ctx context.Context, cfg Config, log logging.Logger, stdout io.Writer) error {
	if log == nil {
		log = logging.Noop()
	}

	tcfg := observability.TracingConfigFromEnv("mapgen")
	tcfg.Map = cfg.Map
	shutdownTracing, err := observability.InitTracing(ctx, tcfg, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	catalog, err := kb.LoadCitiesFile(cfg.CitiesPath)
	if err != nil {
		return err
	}
	log.Info(ctx, "loaded city catalog",
		logging.String("path", cfg.CitiesPath),
		logging.Int("count", catalog.Len()),
	)

	collector, err := observability.NewMapCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics collector: %w", err)
	}
	if metricsSrv := serveMetrics(cfg.MetricsAddr, collector, log); metricsSrv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	composer := svg.NewComposer()
	engine := core.NewMapEngine(cfg.Map, catalog.Cities(),
		core.WithComposer(composer),
		core.WithMetrics(collector),
		core.WithLogger(log),
	)
	engine.Regenerate(ctx)

	if cfg.Animate > 0 {
		if err := animate(ctx, cfg, engine, composer, log); err != nil {
			return err
		}
	}

	if err := writeFrame(cfg.OutPath, composer, stdout); err != nil {
		return err
	}
	log.Info(ctx, "wrote map",
		logging.String("seed", engine.Seed()),
		logging.String("out", cfg.OutPath),
		logging.Int("links", composer.Len()),
	)
	return nil
}

// animate drives the engine from a TimeController for cfg.Animate of
// animation time, writing frames along the way when requested.
func animate(ctx context.Context, cfg Config, engine *core.MapEngine, composer *svg.Composer, log logging.Logger) error {
	if cfg.FramesDir != "" {
		if err := os.MkdirAll(cfg.FramesDir, 0o755); err != nil {
			return fmt.Errorf("create frames dir: %w", err)
		}
	}

	mode := timectrl.Accelerated
	if cfg.RealTime {
		mode = timectrl.RealTime
	}
	tc := timectrl.NewTimeController(time.Now(), cfg.Tick, mode)

	var (
		frames   int
		frameErr error
	)
	tc.AddListener(func(now time.Time) {
		engine.Tick(now)
		if cfg.FramesDir == "" || frameErr != nil || tc.Ticks()%uint64(cfg.FrameEvery) != 0 {
			return
		}
		frames++
		path := filepath.Join(cfg.FramesDir, fmt.Sprintf("frame-%05d.svg", frames))
		frameErr = writeFrame(path, composer, nil)
	})

	log.Info(ctx, "animating",
		logging.String("duration", cfg.Animate.String()),
		logging.String("tick", cfg.Tick.String()),
		logging.String("mode", mode.String()),
	)
	engine.Tick(tc.Now())
	<-tc.Start(ctx, cfg.Animate)

	if frameErr != nil {
		return frameErr
	}
	log.Info(ctx, "animation complete",
		logging.Int("ticks", int(tc.Ticks())),
		logging.Int("frames", frames),
		logging.Int("active_links", len(engine.ActiveLinks())),
	)
	return nil
}

func writeFrame(path string, composer *svg.Composer, stdout io.Writer) error {
	if path == "-" || path == "" {
		if stdout == nil {
			return errors.New("no output for frame")
		}
		_, err := composer.WriteTo(stdout)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if _, err := composer.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	return f.Close()
}

func serveMetrics(addr string, collector *observability.MapCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
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
