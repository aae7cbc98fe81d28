// Package ingest decodes device payloads and feeds them to the monitor.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/firewatch/schema"
)

// ErrEmptyPayload is returned when a payload carries no JSON object.
var ErrEmptyPayload = errors.New("JSON object is required")

// payloadTimeLayouts are tried in order for the optional timestamp field.
var payloadTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// signalKeys maps each signal to its accepted field names, preferred first.
var signalKeys = []struct {
	signal schema.Signal
	keys   []string
}{
	{schema.SignalTemperature, []string{"temp", "temperature"}},
	{schema.SignalHumidity, []string{"hum", "humidity"}},
	{schema.SignalECO2, []string{"eco2"}},
	{schema.SignalTVOC, []string{"tvoc"}},
}

// ParsePayload decodes one device message. Missing or null signals are absent;
// any other non-numeric value is an error. The device ID is left empty when the
// payload has none so callers can apply their own fallback.
func ParsePayload(data []byte) (schema.SensorReading, error) {
	var reading schema.SensorReading

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return reading, ErrEmptyPayload
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return reading, fmt.Errorf("invalid JSON object: %w", err)
	}

	for _, sk := range signalKeys {
		v, err := firstNumber(fields, sk.keys)
		if err != nil {
			return schema.SensorReading{}, err
		}
		switch sk.signal {
		case schema.SignalTemperature:
			reading.Temperature = v
		case schema.SignalHumidity:
			reading.Humidity = v
		case schema.SignalECO2:
			reading.ECO2 = v
		case schema.SignalTVOC:
			reading.TVOC = v
		}
	}

	if raw, ok := fields["device_id"]; ok && !isNull(raw) {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return schema.SensorReading{}, fmt.Errorf("device_id must be a string")
		}
		reading.DeviceID = strings.TrimSpace(id)
	}

	if raw, ok := fields["timestamp"]; ok && !isNull(raw) {
		at, err := parseTimestamp(raw)
		if err != nil {
			return schema.SensorReading{}, err
		}
		reading.ObservedAt = &at
	}
	return reading, nil
}

// firstNumber returns the value of the first key holding a finite number.
func firstNumber(fields map[string]json.RawMessage, keys []string) (*float64, error) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		switch n := v.(type) {
		case float64:
			return &n, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be numeric (received %q)", key, n)
			}
			// "NaN" and "Inf" parse but carry no reading, same as null
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			return &f, nil
		default:
			return nil, fmt.Errorf("%s must be numeric (received %s)", key, string(raw))
		}
	}
	return nil, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseTimestamp accepts RFC 3339 strings, the "2006-01-02 15:04:05" form
// devices commonly send, or Unix seconds.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}
	switch t := v.(type) {
	case float64:
		sec := int64(t)
		nsec := int64((t - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), nil
	case string:
		for _, layout := range payloadTimeLayouts {
			if at, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return at.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("timestamp %q is not a recognized time format", t)
	default:
		return time.Time{}, fmt.Errorf("timestamp must be a string or number")
	}
}
