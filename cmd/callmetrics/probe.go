package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jkbrsn/taskman"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jkbrsn/callmetrics"
	"github.com/jkbrsn/callmetrics/pkg/promreg"
)

// probeTask is a taskman.Task that sends one request to a target.
type probeTask struct {
	client *http.Client
	target targetConfig
}

// Execute sends the request and drains the response. Failures are logged and returned; the
// metrics of the call are recorded by the instrumented transport.
func (p probeTask) Execute() error {
	ctx := callmetrics.WithOperation(context.Background(), p.target.operation())

	var body io.Reader
	if p.target.Body != "" {
		body = strings.NewReader(p.target.Body)
	}
	req, err := http.NewRequestWithContext(ctx, p.target.Method, p.target.URL, body)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Warn().Str("url", p.target.URL).Err(err).Msg("Probe failed")
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	log.Debug().
		Str("url", p.target.URL).
		Int("status", resp.StatusCode).
		Msg("Probe completed")
	return nil
}

// prober wires the registry, observer and transport and runs the probe schedule.
type prober struct {
	cfg      probeConfig
	registry *promreg.Registry
	client   *http.Client
}

func newProber(cfg probeConfig) *prober {
	registry := promreg.New(nil)
	observer := callmetrics.New(registry, callmetrics.WithConfig(cfg.Observer))
	transport := callmetrics.NewTransport(observer, callmetrics.WithBase(cfg.Timeouts.baseTransport()))

	log.Info().
		Str("strategy", observer.Strategy().String()).
		Str("prefix", observer.Config().MetricPrefix).
		Int("targets", len(cfg.Targets)).
		Msg("Prober configured")

	return &prober{
		cfg:      cfg,
		registry: registry,
		client:   &http.Client{Transport: transport, Timeout: cfg.Timeouts.Total},
	}
}

// jobs builds one taskman job per target.
func (p *prober) jobs() []taskman.Job {
	jobs := make([]taskman.Job, 0, len(p.cfg.Targets))
	now := time.Now()
	for i, target := range p.cfg.Targets {
		jobs = append(jobs, taskman.Job{
			ID:       fmt.Sprintf("%s_%s_%d", target.Service, target.Operation, i),
			Cadence:  target.Cadence,
			NextExec: now,
			Tasks:    []taskman.Task{probeTask{client: p.client, target: target}},
		})
	}
	return jobs
}

// run schedules the probes and serves metrics until ctx is done.
func (p *prober) run(ctx context.Context) error {
	manager := taskman.New()
	defer manager.Stop()

	for _, job := range p.jobs() {
		if err := manager.ScheduleJob(job); err != nil {
			return fmt.Errorf("schedule %s: %w", job.ID, err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.registry.Handler())
	server := &http.Server{
		Addr:              p.cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", p.cfg.Listen).Msg("Serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
