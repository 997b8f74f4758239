package main

import (
	"context"
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/signalsfoundry/strategic-map/core"
	"github.com/signalsfoundry/strategic-map/internal/logging"
	"github.com/signalsfoundry/strategic-map/internal/observability"
	"github.com/signalsfoundry/strategic-map/internal/render"
	"github.com/signalsfoundry/strategic-map/internal/render/viewer"
	"github.com/signalsfoundry/strategic-map/kb"
)

func main() {
	def := core.DefaultConfig()
	seed := flag.String("seed", "", "generation seed; blank picks a random 6-digit seed")
	density := flag.Float64("density", def.Density, "grid marker density (0-8)")
	links := flag.Int("links", def.Links, "target number of concurrent link arcs (0-64)")
	flicker := flag.Float64("flicker", def.Flicker, "screen flicker intensity (0-1)")
	orbits := flag.Int("orbits", def.Orbits, "number of satellite ground tracks (0-8)")
	citiesPath := flag.String("cities", "", "path to a JSON city catalog; built-in capitals when empty")
	scale := flag.Float64("scale", 1, "window scale factor")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg := core.Config{
		Seed:    *seed,
		Density: *density,
		Links:   *links,
		Flicker: *flicker,
		Orbits:  *orbits,
	}

	tcfg := observability.TracingConfigFromEnv("mapview")
	tcfg.Map = cfg
	shutdownTracing, err := observability.InitTracing(ctx, tcfg, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	catalog, err := kb.LoadCitiesFile(*citiesPath)
	if err != nil {
		log.Error(ctx, "failed to load city catalog", logging.String("path", *citiesPath), logging.Err(err))
		os.Exit(1)
	}

	state := render.NewState()
	engine := core.NewMapEngine(cfg, catalog.Cities(),
		core.WithComposer(state),
		core.WithLogger(log),
	)
	engine.Regenerate(ctx)

	game, err := viewer.New(engine, state, viewer.WithLogger(log))
	if err != nil {
		log.Error(ctx, "failed to build viewer", logging.Err(err))
		os.Exit(1)
	}

	if *scale <= 0 {
		*scale = 1
	}
	ebiten.SetWindowTitle("Strategic Map")
	w, h := core.CanvasWidth*(*scale), core.CanvasHeight*(*scale)
	ebiten.SetWindowSize(int(w), int(h))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.Info(ctx, "starting viewer",
		logging.String("seed", engine.Seed()),
		logging.Int("cities", catalog.Len()),
	)
	if err := ebiten.RunGame(game); err != nil {
		log.Error(ctx, "viewer exited", logging.Err(err))
		os.Exit(1)
	}
}
