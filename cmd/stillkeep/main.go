package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/stillkeep/internal/config"
	"github.com/zsiec/stillkeep/internal/dedup"
	"github.com/zsiec/stillkeep/internal/health"
	"github.com/zsiec/stillkeep/internal/logger"
	"github.com/zsiec/stillkeep/internal/pipeline"
	"github.com/zsiec/stillkeep/internal/server"
	"github.com/zsiec/stillkeep/internal/video"
	"github.com/zsiec/stillkeep/internal/y4m"
	"github.com/zsiec/stillkeep/pkg/version"
)

func main() {
	var (
		configPath  string
		inputPath   string
		outputPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&inputPath, "i", "-", "Input YUV4MPEG2 stream (- for stdin)")
	flag.StringVar(&outputPath, "o", "-", "Output YUV4MPEG2 stream (- for stdout)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting duplicate-run filter")

	if err := run(cfg, log, inputPath, outputPath); err != nil {
		log.WithError(err).Fatal("Filter run failed")
	}

	log.Info("Shutdown complete")
}

func run(cfg *config.Config, log *logrus.Logger, inputPath, outputPath string) error {
	input, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer output.Close()

	pool, err := video.NewFramePool(cfg.Pool.MaxTotal, cfg.Pool.FreeListSize, logger.NewLogrusAdapter(logrus.NewEntry(log)))
	if err != nil {
		return fmt.Errorf("creating frame pool: %w", err)
	}

	reader, err := y4m.NewReader(input, pool)
	if err != nil {
		return fmt.Errorf("reading input stream: %w", err)
	}

	rateNum, rateDen := reader.FrameRate()
	log.WithFields(logrus.Fields{
		"width":      reader.Width(),
		"height":     reader.Height(),
		"format":     reader.Format().Name,
		"frame_rate": fmt.Sprintf("%d:%d", rateNum, rateDen),
	}).Info("Input stream negotiated")

	writer, err := y4m.NewWriter(output, reader.Format(), reader.Width(), reader.Height(), rateNum, rateDen)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer func() {
		if err := writer.Flush(); err != nil {
			log.WithError(err).Error("Failed to flush output stream")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamID := uuid.New().String()
	p, err := pipeline.New(ctx, pipeline.Config{
		StreamID: streamID,
		Filter: dedup.Options{
			MinDupCount: cfg.Filter.MinDupCount,
			Hi:          cfg.Filter.Hi,
			Lo:          cfg.Filter.Lo,
			Frac:        cfg.Filter.Frac,
		},
	}, reader, writer)
	if err != nil {
		return err
	}

	format := reader.Format()
	if err := p.Negotiate(format.Log2ChromaW, format.Log2ChromaH); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics, log)
	}

	var statusDone chan error
	if cfg.Server.Enabled {
		stream := singleStream{p}
		srv := server.New(&cfg.Server, log, newHealthManager(log, pool, stream), stream)

		statusDone = make(chan error, 1)
		go func() { statusDone <- srv.Start(ctx) }()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if err := p.Start(); err != nil {
		return err
	}

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig).Info("Received shutdown signal")
	case <-p.Done():
	}

	err = p.Stop()
	cancel()

	if statusDone != nil {
		if srvErr := <-statusDone; srvErr != nil {
			log.WithError(srvErr).Error("Status server error")
		}
	}

	stats := p.GetStats()
	log.WithFields(logrus.Fields{
		"frames_in":  stats.FramesIn,
		"frames_out": stats.FramesOut,
	}).Info("Stream finished")

	return err
}

// newHealthManager registers the checkers over this process's actual
// resources: the frame pool budget and the stream counters.
func newHealthManager(log *logrus.Logger, pool *video.FramePool, stats health.StatsSource) *health.Manager {
	mgr := health.NewManager(log)
	mgr.Register(health.NewPoolChecker(pool, 0.9))
	mgr.Register(health.NewStreamChecker(stats))
	return mgr
}

// singleStream adapts one pipeline to the status server's stats
// surface and the health checkers.
type singleStream struct {
	p *pipeline.Pipeline
}

func (s singleStream) StreamStats() []pipeline.Stats {
	return []pipeline.Stats{s.p.GetStats()}
}

func (s singleStream) Streams() []health.StreamStats {
	stats := s.p.GetStats()
	return []health.StreamStats{{
		StreamID:  stats.StreamID,
		FramesIn:  stats.FramesIn,
		FramesOut: stats.FramesOut,
		Errors:    stats.Errors,
	}}
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}

func openOutput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	return f, nil
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(cfg config.MetricsConfig, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics server error")
	}
}
