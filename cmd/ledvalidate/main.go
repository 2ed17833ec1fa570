package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/clockless/internal/backend"
	"github.com/coreman2200/clockless/internal/config"
	"github.com/coreman2200/clockless/internal/harness"
	"github.com/coreman2200/clockless/internal/registry"
	"github.com/coreman2200/clockless/internal/timing"
	"github.com/coreman2200/clockless/internal/wire"
	"github.com/coreman2200/clockless/internal/ws"
)

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		chipset    = flag.String("chipset", "WS2812B", "chipset timing table")
		channels   = flag.Int("channels", 3, "channels per LED (3=RGB, 4=RGBW)")
		drivers    = flag.String("drivers", "sim,gpiostream,parallel8", "comma-separated drivers to validate")
		lanesFlag  = flag.String("lanes", "1", "comma-separated lane counts")
		sizesFlag  = flag.String("sizes", "10,300", "comma-separated strip sizes")
		jitterNs   = flag.Int("jitter-ns", 0, "inject +/- jitter on the simulated wire")
		pinName    = flag.String("pin", "", "GPIO pin for the bitbang driver, e.g. GPIO18")
		brightness = flag.Int("brightness", 0, "video-scale pattern intensity 1-255, 0 = full")
		addr       = flag.String("serve", "", "stream results over websocket at this address")
		preview    = flag.Bool("preview", false, "draw validated patterns to the console")
		configPath = flag.String("config", "", "path to config.yaml")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if !*verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// ---- Load config.yaml (optional) ----
	var cfg *config.Config
	if *configPath != "" {
		if c, err := config.Load(*configPath); err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		} else {
			cfg = c
		}
	}

	eChipset, eChannels := *chipset, *channels
	eDrivers := splitCSV(*drivers)
	eLanes := parseInts(*lanesFlag)
	eSizes := parseInts(*sizesFlag)
	eServe := *addr
	ePreview := *preview
	if cfg != nil {
		if cfg.Chipset != "" {
			eChipset = cfg.Chipset
		}
		if cfg.Channels > 0 {
			eChannels = cfg.Channels
		}
		if len(cfg.Drivers) > 0 {
			eDrivers = cfg.Drivers
		}
		if len(cfg.Lanes) > 0 {
			eLanes = cfg.Lanes
		}
		if len(cfg.StripSizes) > 0 {
			eSizes = cfg.StripSizes
		}
		if cfg.Serve != "" {
			eServe = cfg.Serve
		}
		ePreview = ePreview || cfg.Preview
	}

	spec, ok := timing.ByName(eChipset)
	if !ok {
		log.Fatal().Str("chipset", eChipset).Strs("known", timing.Names()).Msg("unknown chipset")
	}

	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("host init failed; hardware drivers unavailable")
	}

	// ---- Registry + capture taps ----
	reg := registry.New()
	h := harness.New(reg, spec, eChannels)
	if cfg != nil && cfg.Capture.Margin > 0 {
		h.Margin = cfg.Capture.Margin
	}
	if cfg != nil && cfg.Capture.FloorMs > 0 {
		h.Floor = time.Duration(cfg.Capture.FloorMs) * time.Millisecond
	}
	if *brightness > 0 && *brightness <= 255 {
		h.Brightness = uint8(*brightness)
	}

	simRec := wire.NewRecorder()
	if *jitterNs > 0 {
		simRec.SetJitter(time.Duration(*jitterNs) * time.Nanosecond)
	}
	mustRegister(reg, backend.NewLoopback(simRec))
	h.AttachCapture("sim", simRec)

	streamRec := wire.NewRecorder()
	if *jitterNs > 0 {
		streamRec.SetJitter(time.Duration(*jitterNs) * time.Nanosecond)
	}
	tap := &wire.StreamPin{N: "looptap", Rec: streamRec, Spec: spec}
	mustRegister(reg, backend.NewStream(tap, spec.Resolution))
	h.AttachCapture("gpiostream", streamRec)

	port := wire.NewPortRecorder(8, spec)
	if par, err := backend.NewParallel(port, 8, spec); err == nil {
		mustRegister(reg, par)
		taps := make([]harness.Capturer, 8)
		for i := range taps {
			taps[i] = &wire.LaneCapturer{Port: port, Lane: i}
		}
		h.AttachCapture("parallel8", taps...)
	}

	// Hardware paths register when present; they transmit for real but
	// need an external RX peripheral for capture, so they only join the
	// matrix when explicitly listed.
	if *pinName != "" {
		if p := gpioreg.ByName(*pinName); p == nil {
			log.Warn().Str("pin", *pinName).Msg("pin not found; bitbang skipped")
		} else {
			mustRegister(reg, backend.NewBitBang(p))
		}
	}
	if cfg != nil && cfg.SPI.Dev != "" {
		if p, err := spireg.Open(cfg.SPI.Dev); err != nil {
			log.Warn().Err(err).Str("dev", cfg.SPI.Dev).Msg("SPI open failed; driver skipped")
		} else {
			freq := physic.Frequency(cfg.SPI.SpeedKHz) * physic.KiloHertz
			if freq == 0 {
				freq = 2500 * physic.KiloHertz
			}
			mustRegister(reg, backend.NewSPI(p, spec, eChannels, freq))
		}
	}
	if cfg != nil && cfg.CDev.Chip != "" {
		if c, err := backend.NewCDev(cfg.CDev.Chip, cfg.CDev.Offset); err != nil {
			log.Warn().Err(err).Str("chip", cfg.CDev.Chip).Msg("cdev open failed; driver skipped")
		} else {
			mustRegister(reg, c)
			defer c.Close()
		}
	}

	for _, d := range reg.List() {
		log.Info().Str("driver", d.Name).Int("priority", d.Priority).Msg("registered")
	}

	// ---- Optional live result stream ----
	var hub *ws.State
	if eServe != "" {
		hub = ws.NewState(eChipset)
		h.OnResult = hub.Publish
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.HandleResultsWS)
		mux.HandleFunc("/health", hub.HandleHealth)
		go func() {
			log.Info().Str("addr", eServe).Msg("result stream listening")
			if err := http.ListenAndServe(eServe, mux); err != nil {
				log.Warn().Err(err).Msg("result stream stopped")
			}
		}()
	}

	// ---- Run the matrix ----
	lanes := usableLanes(eDrivers, eLanes)
	cases := harness.Matrix(eDrivers, lanes, eSizes, harness.Patterns)
	log.Info().Str("chipset", spec.Name).Int("tuples", len(cases)).Msg("starting validation matrix")
	rep := h.Run(cases)

	if hub != nil {
		hub.Finish(rep)
		// let attached clients drain the summary frame
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println(rep.String())

	for _, res := range rep.Results {
		if d := harness.Diagnose(res); d != nil {
			log.Warn().
				Str("code", d.Code).
				Strs("likely_causes", d.LikelyCauses).
				Msg(d.Summary)
		}
	}

	if ePreview && len(eSizes) > 0 {
		previewPatterns(eSizes[0])
	}
	if !rep.Passed() {
		os.Exit(1)
	}
}

func mustRegister(reg *registry.Registry, b backend.Backend) {
	if err := reg.Register(b); err != nil {
		log.Fatal().Err(err).Msg("register driver")
	}
}

// usableLanes keeps multi-lane counts only when a parallel driver is in
// the matrix; serial drivers always run single-lane.
func usableLanes(drivers []string, lanes []int) []int {
	for _, d := range drivers {
		if strings.HasPrefix(d, "parallel") {
			return lanes
		}
	}
	return []int{1}
}

// previewPatterns draws each conformance pattern as a one-line console
// strip.
func previewPatterns(n int) {
	for _, p := range harness.Patterns {
		d := screen.New(n)
		img := image.NewNRGBA(d.Bounds())
		for i, px := range p.Build(n) {
			img.SetNRGBA(i, 0, color.NRGBA{R: px[0], G: px[1], B: px[2], A: 0xFF})
		}
		fmt.Printf("pattern %s: ", p.Name)
		if err := d.Draw(d.Bounds(), img, image.Point{}); err != nil {
			log.Warn().Err(err).Msg("preview draw failed")
			return
		}
		fmt.Println()
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInts(s string) []int {
	var out []int
	for _, p := range splitCSV(s) {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			out = append(out, v)
		}
	}
	return out
}
