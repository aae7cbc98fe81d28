package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/huangsam/firewatch/internal/ingest"
	"github.com/huangsam/firewatch/internal/logger"
	"github.com/huangsam/firewatch/internal/metrics"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/huangsam/firewatch/schema"
)

// errorResponse is the envelope for every failed request.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ingestResponse is returned by POST /data.
type ingestResponse struct {
	Status       string               `json:"status"`
	Message      string               `json:"message"`
	DataID       int64                `json:"data_id"`
	Stored       bool                 `json:"stored"`
	DeviceID     string               `json:"device_id"`
	Verdict      schema.RiskVerdict   `json:"verdict"`
	ShouldAlert  bool                 `json:"should_alert"`
	AlertMessage string               `json:"alert_message,omitempty"`
	ReceivedData schema.SensorReading `json:"received_data"`
}

// writeJSON encodes before writing the header so an encode failure can still
// become a 500 envelope.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.WithComponent("http").Error().Err(err).Msg("failed to encode response")
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Status: "error", Message: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	count, err := s.opts.Store.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("count readings: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, `firewatch sensor server
Stored readings: %d
Signals: temperature (temp), humidity (hum), eco2, tvoc, device_id
Endpoints:
  POST /data          submit a reading
  GET  /data          list readings (page, limit, device_id)
  GET  /latest        newest reading (device_id)
  GET  /devices       devices seen
  GET  /stats         aggregate statistics (device_id)
  POST /clear         delete every reading
  GET  /ws            live alert stream
`, count)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		metrics.ReadingsTotal.WithLabelValues("http", "rejected").Inc()
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	reading, err := ingest.ParsePayload(body)
	if err != nil {
		metrics.ReadingsTotal.WithLabelValues("http", "rejected").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.ReadingsTotal.WithLabelValues("http", "accepted").Inc()

	out, err := s.opts.Processor.Process(r.Context(), reading)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	message := "reading evaluated"
	if out.Stored {
		message = "reading stored"
	}
	received := out.Decision.State.LastReading
	if received == nil {
		received = &reading
	}
	writeJSON(w, http.StatusOK, ingestResponse{
		Status:       "success",
		Message:      message,
		DataID:       out.DataID,
		Stored:       out.Stored,
		DeviceID:     out.Decision.DeviceID,
		Verdict:      out.Decision.Verdict,
		ShouldAlert:  out.Decision.ShouldAlert,
		AlertMessage: out.Message,
		ReceivedData: *received,
	})
}

// queryInt reads an optional positive integer parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return v, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.opts.Store.List(r.Context(), schema.ListQuery{
		Page:     page,
		Limit:    limit,
		DeviceID: r.URL.Query().Get("device_id"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list readings: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	record, err := s.opts.Store.Latest(r.Context(), r.URL.Query().Get("device_id"))
	if errors.Is(err, store.ErrNoData) {
		writeError(w, http.StatusNotFound, "no readings stored")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("latest reading: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"latest_data": record})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.opts.Store.Devices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list devices: %v", err))
		return
	}
	if devices == nil {
		devices = []schema.DeviceSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	if s.opts.Forgetter == nil {
		writeError(w, http.StatusNotImplemented, "device state is not managed by this server")
		return
	}
	deviceID := mux.Vars(r)["device_id"]
	if err := s.opts.Forgetter.Forget(r.Context(), deviceID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("forgot gatekeeper state for %s", deviceID),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	stats, err := s.opts.Store.Stats(r.Context(), deviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("stats: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"device_filter": deviceID, "statistics": stats})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.opts.Store.DeleteAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("clear readings: %v", err))
		return
	}
	logger.WithRequestID(r.Header.Get(RequestIDHeader)).Warn().Int64("deleted", deleted).Msg("all readings cleared")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("deleted %d readings", deleted),
		"deleted": deleted,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.opts.Store.GetStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("store unavailable: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"store":     st.Backend,
		"connected": st.Connected,
	})
}
