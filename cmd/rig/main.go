package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"gocv.io/x/gocv"

	"github.com/insectlab/bugradar/internal/config"
	"github.com/insectlab/bugradar/internal/detect"
	"github.com/insectlab/bugradar/internal/events"
	"github.com/insectlab/bugradar/internal/metrics"
	"github.com/insectlab/bugradar/internal/periph"
	"github.com/insectlab/bugradar/internal/radar"
	"github.com/insectlab/bugradar/internal/rig"
	"github.com/insectlab/bugradar/internal/sessionlog"
	"github.com/insectlab/bugradar/internal/vision"
)

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Rig] config: %v", err)
	}
	rc := cfg.Rig

	log.Printf("[Rig] Starting - ID: %s, Source: %s, NATS: %s", rc.ID, rc.Source, cfg.NATS.URL)

	// Detection models
	specs := make([]vision.ModelSpec, 0, len(rc.Models))
	for _, m := range rc.Models {
		specs = append(specs, vision.ModelSpec{
			Name:      m.Name,
			Path:      m.Path,
			InputSize: rc.InferSize,
			Labels:    m.Labels,
		})
	}
	detector, err := vision.NewDetector(specs, detect.Params{
		ConfThreshold: float32(rc.ConfThreshold),
		NMSThreshold:  float32(rc.NMSThreshold),
		MinBoxPx:      rc.MinBoxPx,
	})
	if err != nil {
		log.Fatalf("[Rig] detector: %v", err)
	}
	defer detector.Close()

	// Capture
	source, err := vision.OpenSource(rc.Source, rc.DisplayWidth, rc.DisplayHeight)
	if err != nil {
		log.Fatalf("[Rig] capture: %v", err)
	}
	defer source.Close()

	// Session log
	store, err := sessionlog.Open(rc.LogPath)
	if err != nil {
		log.Fatalf("[Rig] session log: %v", err)
	}

	// NATS: optional, the rig keeps detecting without a broker
	var publisher events.Publisher = events.NopPublisher{}
	if nc, err := nats.Connect(cfg.NATS.URL); err != nil {
		log.Printf("[Rig] NATS connection failed: %v (running standalone)", err)
	} else {
		defer nc.Close()
		publisher = events.NewNATSPublisher(nc, cfg.NATS.Subject, cfg.NATS.Retries)
		log.Printf("[Rig] NATS connected")
	}

	// Peripherals: absence is never fatal, the rig runs headless
	var leds *periph.LEDs
	if rc.LEDs.Enabled {
		leds, err = periph.NewLEDs(map[string]string{
			"fly":       rc.LEDs.Green,
			"cockroach": rc.LEDs.Yellow,
		}, rc.LEDs.RedPin)
		if err != nil {
			log.Printf("[Rig] LEDs unavailable: %v", err)
			leds = nil
		} else {
			defer leds.Close()
		}
	}

	var oled *periph.OLED
	if rc.OLED.Enabled {
		oled, err = periph.NewOLED(rc.OLED.Bus, rc.OLED.Width, rc.OLED.Height)
		if err != nil {
			log.Printf("[Rig] OLED unavailable: %v", err)
			oled = nil
		} else {
			defer oled.Close()
		}
	}

	// Recording: camera panel resized to the radar row's width, so the
	// composite is a square of twice the radar size.
	recorder, err := vision.NewRecorder(rc.RecordingPath, rc.RecordingFPS, rc.RadarSizePx*2, rc.RadarSizePx*2)
	if err != nil {
		log.Printf("[Rig] recording disabled: %v", err)
		recorder = nil
	} else {
		defer recorder.Close()
	}

	// Health + metrics side server
	go startHealthServer(rc.HealthAddr)

	service := rig.NewService(rig.Params{
		RigID:          rc.ID,
		FocalLengthPx:  rc.FocalLengthPx,
		RealWidthM:     rc.RealWidthsM,
		MetersPerPixel: rc.MetersPerPixel,
		MaxTrail:       rc.MaxTrail,
		RadarSizePx:    rc.RadarSizePx,
		RadarMarginPx:  10,
		RadarRangeM:    rc.RadarRangeM,
		SnapshotEvery:  rc.SnapshotEvery,
	}, store, publisher)

	renderer := radar.NewRenderer(rc.RadarSizePx, 10, rc.RadarRangeM, rc.RadarRingStepM)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	frame := gocv.NewMat()
	defer frame.Close()

	frameInterval := time.Duration(float64(time.Second) / rc.RecordingFPS)

	log.Printf("[Rig] pipeline running")
loop:
	for {
		select {
		case sig := <-quit:
			log.Printf("[Rig] received %v, shutting down", sig)
			break loop
		default:
		}

		loopStart := time.Now()

		if ok := source.Read(&frame); !ok {
			log.Printf("[Rig] source %s ended", source)
			break loop
		}

		detections := detector.Detect(frame)
		out, err := service.ProcessFrame(detections, frame.Cols(), frame.Rows(), time.Now())
		if err != nil {
			log.Printf("[Rig] frame %d: %v", out.FrameID, err)
		}

		if leds != nil {
			leds.Update(out.LEDLabels)
		}
		if oled != nil {
			if err := oled.ShowLines(out.OLEDLines); err != nil {
				log.Printf("[Rig] oled: %v", err)
			}
		}

		if recorder != nil {
			radar.DrawOverlay(&frame, out.Objects)
			radar.DrawStatus(&frame, out.FPS)

			points := renderer.DrawPoints(out.Objects)
			trails := renderer.DrawTrails(out.Trails)
			composite := radar.Compose(frame, points, trails)

			if err := recorder.Write(composite); err != nil {
				log.Printf("[Rig] recorder: %v", err)
			}

			composite.Close()
			trails.Close()
			points.Close()
		}

		// Pace the loop to the recording rate.
		if elapsed := time.Since(loopStart); elapsed < frameInterval {
			time.Sleep(frameInterval - elapsed)
		}
	}

	if err := service.Close(); err != nil {
		log.Printf("[Rig] final snapshot: %v", err)
	}
	log.Printf("[Rig] stopped, session log at %s", store.Path())
}

func startHealthServer(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", metrics.Handler())

	log.Printf("[Rig] health server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[Rig] health server: %v", err)
	}
}
