// Package core runs readings through the evaluator and the alert gatekeeper,
// and holds the orchestration behind each command.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/firewatch/core/algo"
	"github.com/huangsam/firewatch/internal/alert"
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/ingest"
	"github.com/huangsam/firewatch/internal/logger"
	"github.com/huangsam/firewatch/internal/outwriter"
	"github.com/huangsam/firewatch/internal/server"
	"github.com/huangsam/firewatch/internal/state"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/huangsam/firewatch/schema"
)

// ExecuteEvaluate scores one reading against an optional previous reading and
// prints the decision. Nothing is persisted and no alert is dispatched.
func ExecuteEvaluate(ctx context.Context, cfg *contract.Config, current schema.SensorReading, previous *schema.SensorReading, w io.Writer) (schema.Decision, error) {
	gate := NewGatekeeper(cfg.Params, nil, nil)
	defer func() { _ = gate.Close() }()

	deviceID := ResolveDeviceID("", current)
	if previous != nil {
		seed := previous.Clone()
		if err := gate.store.Save(ctx, deviceID, schema.GatekeeperState{LastReading: &seed}); err != nil {
			return schema.Decision{}, fmt.Errorf("failed to seed previous reading: %w", err)
		}
	}

	decision, err := gate.Consider(ctx, deviceID, current)
	if err != nil {
		return decision, fmt.Errorf("evaluation failed: %w", err)
	}
	if err := outwriter.NewOutWriterTo(w).WriteVerdict(decision, current, cfg); err != nil {
		return decision, err
	}
	return decision, nil
}

// ExecuteServe wires the gatekeeper, the alert sinks and the inbound
// transports, then blocks until ctx is done or a transport fails.
func ExecuteServe(ctx context.Context, cfg *contract.Config, rs contract.ReadingStore) error {
	log := logger.WithComponent("serve")

	stateStore, err := state.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize state backend: %w", err)
	}
	gate := NewGatekeeper(cfg.Params, stateStore, nil)
	defer func() { _ = gate.Close() }()

	hub := alert.NewHub()
	defer func() { _ = hub.Close() }()
	sinks := []contract.AlertSink{alert.LogSink{}, hub}

	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := alert.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("failed to initialize kafka sink: %w", err)
		}
		defer func() { _ = kafka.Close() }()
		sinks = append(sinks, kafka)
	}

	monitor := NewMonitor(gate, rs, sinks...)
	srv := server.New(server.Options{
		Processor: monitor,
		Store:     rs,
		Forgetter: gate,
		Stream:    hub,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	running := 1
	go func() { errCh <- srv.Run(ctx, cfg.ListenAddr) }()

	if cfg.MQTTBroker != "" {
		sub := ingest.NewSubscriber(ingest.SubscriberConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		}, monitor)
		running++
		go func() { errCh <- sub.Run(ctx) }()
	}

	log.Info().
		Str("listen", cfg.ListenAddr).
		Str("state", string(cfg.StateBackend)).
		Str("store", string(cfg.StoreBackend)).
		Bool("mqtt", cfg.MQTTBroker != "").
		Bool("kafka", len(cfg.KafkaBrokers) > 0).
		Msg("firewatch started")

	var errs []error
	for range running {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
			cancel()
		}
	}
	return errors.Join(errs...)
}

// ExecuteCleanup deletes readings older than the retention window, or all of them.
func ExecuteCleanup(ctx context.Context, cfg *contract.Config, rs contract.ReadingStore, all bool, w io.Writer) (schema.CleanupResult, error) {
	var (
		result schema.CleanupResult
		err    error
	)
	if all {
		result, err = CleanupAll(ctx, rs)
	} else {
		result, err = CleanupOlderThan(ctx, rs, cfg.RetentionDays, time.Now().UTC())
	}
	if err != nil {
		return result, err
	}
	return result, outwriter.NewOutWriterTo(w).WriteCleanup(result, cfg)
}

// ExecuteReadings prints one page of stored readings. When top is positive the
// readings are ranked by risk instead and the top entries are printed.
func ExecuteReadings(ctx context.Context, cfg *contract.Config, rs contract.ReadingStore, q schema.ListQuery, top int, w io.Writer) error {
	var page schema.ReadingPage
	if top > 0 {
		records, err := store.ReadAll(ctx, rs, q.DeviceID)
		if err != nil {
			return err
		}
		page = schema.ReadingPage{
			TotalCount:   len(records),
			Page:         1,
			Limit:        top,
			DeviceFilter: q.DeviceID,
		}
		page.Data = algo.RankReadings(records, top)
	} else {
		var err error
		page, err = rs.List(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to list readings: %w", err)
		}
	}
	return outwriter.NewOutWriterTo(w).WriteReadings(page, cfg)
}

// ExecuteDevices prints every device that has reported, most recent first.
func ExecuteDevices(ctx context.Context, cfg *contract.Config, rs contract.ReadingStore, w io.Writer) error {
	devices, err := rs.Devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	return outwriter.NewOutWriterTo(w).WriteDevices(algo.RankDevices(devices), cfg)
}

// ExecuteStats prints aggregate statistics, optionally for one device.
func ExecuteStats(ctx context.Context, cfg *contract.Config, rs contract.ReadingStore, deviceID string, w io.Writer) error {
	stats, err := rs.Stats(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}
	return outwriter.NewOutWriterTo(w).WriteStats(stats, cfg)
}

// ExecuteParams prints the effective evaluation parameters.
func ExecuteParams(cfg *contract.Config, w io.Writer) error {
	return outwriter.NewOutWriterTo(w).WriteParams(cfg)
}

// ExecuteStateStatus prints the status of the gatekeeper state backend.
func ExecuteStateStatus(ctx context.Context, cfg *contract.Config, w io.Writer) error {
	stateStore, err := state.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize state backend: %w", err)
	}
	gate := NewGatekeeper(cfg.Params, stateStore, nil)
	defer func() { _ = gate.Close() }()

	status, err := gate.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get state status: %w", err)
	}
	store.PrintStateStatus(w, status)
	return nil
}
