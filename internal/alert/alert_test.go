package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/huangsam/firewatch/internal/logger"
	"github.com/huangsam/firewatch/schema"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func highVerdict() schema.RiskVerdict {
	return schema.RiskVerdict{
		Score:   60,
		Level:   schema.LevelHigh,
		Message: schema.GetLevelMessage(schema.LevelHigh),
		Factors: []string{"high temperature (31°C > 30°C)", "elevated TVOC (350ppb > 300ppb)"},
	}
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("kitchen", schema.RiskVerdict{Level: schema.LevelMedium, Score: 45}, "msg", fixedNow)
	assert.Equal(t, "kitchen", ev.DeviceID)
	assert.Equal(t, schema.LevelMedium, ev.Level)
	assert.Equal(t, 45, ev.Score)
	assert.NotNil(t, ev.Factors)
	assert.Equal(t, fixedNow, ev.Timestamp)
}

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSinkWithWriter(w)
	sink.now = func() time.Time { return fixedNow }
	assert.Equal(t, "kafka", sink.Name())

	require.NoError(t, sink.Send(context.Background(), "kitchen", highVerdict(), "🔴 Fire risk"))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("kitchen"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "level", msg.Headers[0].Key)
	assert.Equal(t, []byte("HIGH"), msg.Headers[0].Value)

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "kitchen", ev.DeviceID)
	assert.Equal(t, schema.LevelHigh, ev.Level)
	assert.Equal(t, 60, ev.Score)
	assert.Equal(t, "🔴 Fire risk", ev.Message)
	assert.Len(t, ev.Factors, 2)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	sink := NewKafkaSinkWithWriter(w)

	err := sink.Send(context.Background(), "kitchen", highVerdict(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Contains(t, err.Error(), "kitchen")
}

func TestNewKafkaSinkValidation(t *testing.T) {
	_, err := NewKafkaSink(nil, "alerts")
	assert.Error(t, err)
	_, err = NewKafkaSink([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	sink, err := NewKafkaSink([]string{"localhost:9092"}, "alerts")
	require.NoError(t, err)
	assert.NotNil(t, sink)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger.Init("info", schema.JSONLog, &buf)
	t.Cleanup(func() {
		logger.Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	sink := LogSink{}
	assert.Equal(t, "log", sink.Name())
	require.NoError(t, sink.Send(context.Background(), "kitchen", highVerdict(), "fire!"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "kitchen", entry["device_id"])
	assert.Equal(t, "HIGH", entry["risk_level"])
	assert.Equal(t, "fire!", entry["message"])
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	hub.now = func() time.Time { return fixedNow }
	assert.Equal(t, "websocket", hub.Name())

	conn := dialHub(t, hub)
	require.NoError(t, hub.Send(context.Background(), "kitchen", highVerdict(), "fire!"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "kitchen", ev.DeviceID)
	assert.Equal(t, "fire!", ev.Message)
	assert.Equal(t, schema.LevelHigh, ev.Level)
}

func TestHubClientDisconnect(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server closed the connection")

	// Broadcasting with no clients is a no-op.
	hub.Broadcast(Event{DeviceID: "kitchen"})
}
