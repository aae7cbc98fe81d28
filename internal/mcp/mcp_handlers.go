package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/firewatch/core/algo"
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/huangsam/firewatch/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultRiskiestLimit = 10

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	store   contract.ReadingStore
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

// optionalNumber returns nil when the argument is missing or null.
func optionalNumber(args map[string]any, key string) (*float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, ok := raw.(float64)
	if !ok {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

func (h *toolHandler) handleEvaluateReading(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var current, previous schema.SensorReading
	fields := []struct {
		key string
		dst **float64
	}{
		{"temperature", &current.Temperature},
		{"humidity", &current.Humidity},
		{"eco2", &current.ECO2},
		{"tvoc", &current.TVOC},
		{"prev_temperature", &previous.Temperature},
		{"prev_eco2", &previous.ECO2},
		{"prev_tvoc", &previous.TVOC},
	}
	for _, f := range fields {
		v, err := optionalNumber(args, f.key)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid reading: %v", err)), nil
		}
		*f.dst = v
	}

	var prev *schema.SensorReading
	if !previous.Empty() {
		prev = &previous
	}
	verdict := algo.Evaluate(current, prev, h.baseCfg.Params)
	return jsonResult(verdict), nil
}

func (h *toolHandler) handleGetLatestReading(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	record, err := h.store.Latest(ctx, request.GetString("device_id", ""))
	if errors.Is(err, store.ErrNoData) {
		return mcp.NewToolResultError("no readings stored"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("latest reading failed: %v", err)), nil
	}
	return jsonResult(schema.EnrichReadings([]schema.ReadingRecord{record})[0]), nil
}

func (h *toolHandler) handleGetReadingStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.store.Stats(ctx, request.GetString("device_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(stats), nil
}

func (h *toolHandler) handleGetRiskiestReadings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultRiskiestLimit)
	if limit < 1 {
		return mcp.NewToolResultError("limit must be at least 1"), nil
	}

	records, err := store.ReadAll(ctx, h.store, request.GetString("device_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read readings failed: %v", err)), nil
	}
	ranked := algo.RankReadings(records, limit)
	return jsonResult(schema.EnrichReadings(ranked)), nil
}

func (h *toolHandler) handleListDevices(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := h.store.Devices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list devices failed: %v", err)), nil
	}
	if devices == nil {
		devices = []schema.DeviceSummary{}
	}
	return jsonResult(algo.RankDevices(devices)), nil
}
