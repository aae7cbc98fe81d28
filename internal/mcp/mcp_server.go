// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the firewatch MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, rs contract.ReadingStore) *server.MCPServer {
	s := server.NewMCPServer(
		"Firewatch Risk Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		store:   rs,
	}

	s.AddTool(mcp.NewTool("evaluate_reading",
		mcp.WithDescription("Score a sensor reading for fire risk. Omitted signals are treated as absent."),
		mcp.WithNumber("temperature", mcp.Description("Temperature in degrees Celsius.")),
		mcp.WithNumber("humidity", mcp.Description("Relative humidity in percent.")),
		mcp.WithNumber("eco2", mcp.Description("Equivalent CO2 in ppm.")),
		mcp.WithNumber("tvoc", mcp.Description("Total volatile organic compounds in ppb.")),
		mcp.WithNumber("prev_temperature", mcp.Description("Previous temperature, enables trend scoring.")),
		mcp.WithNumber("prev_eco2", mcp.Description("Previous eCO2, enables trend scoring.")),
		mcp.WithNumber("prev_tvoc", mcp.Description("Previous TVOC, enables trend scoring.")),
	), h.handleEvaluateReading)

	s.AddTool(mcp.NewTool("get_latest_reading",
		mcp.WithDescription("Return the most recent stored reading with its verdict."),
		mcp.WithString("device_id", mcp.Description("Restrict to one device.")),
	), h.handleGetLatestReading)

	s.AddTool(mcp.NewTool("get_reading_stats",
		mcp.WithDescription("Return aggregate statistics over the stored readings."),
		mcp.WithString("device_id", mcp.Description("Restrict to one device.")),
	), h.handleGetReadingStats)

	s.AddTool(mcp.NewTool("get_riskiest_readings",
		mcp.WithDescription("Return stored readings ordered by risk score, highest first."),
		mcp.WithString("device_id", mcp.Description("Restrict to one device.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of readings (default 10).")),
	), h.handleGetRiskiestReadings)

	s.AddTool(mcp.NewTool("list_devices",
		mcp.WithDescription("List devices that have reported readings, most recently active first."),
	), h.handleListDevices)

	return s
}

// StartMCPServer serves the firewatch tools over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, rs contract.ReadingStore) error {
	s := NewMCPServer(baseCfg, rs)
	return server.ServeStdio(s)
}
