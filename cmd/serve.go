package cmd

import (
	"github.com/huangsam/firewatch/core"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/spf13/cobra"
)

// serveCmd runs the long-lived ingestion service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept readings over HTTP and MQTT, evaluate them and dispatch alerts",
	Long: `Start the firewatch service.

Every reading received on POST /data (or on the MQTT topic when --mqtt-broker
is set) is scored, passed through the per-device alert cooldown, stored, and
alerts are fanned out to the log, WebSocket clients on /ws, and Kafka when
--kafka-brokers is set.

Endpoints:
  GET  /          summary and endpoint list
  POST /data      submit a reading
  GET  /data      list readings (page, limit, device_id)
  GET  /latest    newest reading
  GET  /devices   devices seen
  GET  /stats     aggregate statistics
  POST /clear     delete every reading
  GET  /health    store health
  GET  /metrics   Prometheus metrics
  GET  /ws        live alert stream

Examples:
  # Local service with SQLite storage
  firewatch serve

  # Shared cooldown state in Redis, readings from MQTT, alerts to Kafka
  firewatch serve --state-backend redis --mqtt-broker tcp://localhost:1883 --kafka-brokers localhost:9092`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteServe(rootCtx, cfg, store.Manager.GetReadingStore())
	},
}
