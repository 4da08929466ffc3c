// Package mcp exposes the link engine as MCP (Model Context Protocol) tools
// over stdio, so agents can scan and clean media libraries directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yoanbernabeu/strmlink/engine"
	"github.com/yoanbernabeu/strmlink/extensions"
	"github.com/yoanbernabeu/strmlink/linker"
)

// Server wraps the MCP server around an engine.
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
	recursive bool
}

// Kinds is the output of strmlink_kinds.
type Kinds struct {
	Payload   []string `json:"payload"`
	Companion []string `json:"companion"`
}

// ToolError is returned as the text of a failed tool call.
type ToolError struct {
	Kind  linker.ErrorKind `json:"kind"`
	Error string           `json:"error"`
}

// encodeOutput encodes data in the specified format (json or toon).
func encodeOutput(data any, format string) (string, error) {
	switch format {
	case "toon":
		return gotoon.Encode(data)
	default:
		jsonBytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(jsonBytes), nil
	}
}

// NewServer creates an MCP server backed by eng. recursive is the default
// for tools whose recursive argument is omitted.
func NewServer(eng *engine.Engine, version string, recursive bool) *Server {
	s := &Server{engine: eng, recursive: recursive}
	s.mcpServer = server.NewMCPServer(
		"strmlink",
		version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	scanTool := mcp.NewTool("strmlink_scan",
		mcp.WithDescription("Create the links a media library needs for its .strm pointer files. Each '<name>.(<kind>).strm' file gets a '<name>.<kind>' link, and sibling metadata, subtitle, artwork and audio files get '<name>.(<kind>)<ext>' links. Existing files are never overwritten."),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Absolute path of the library directory to scan"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Descend into subdirectories (default: from config)"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report what would be created without touching the disk (default: false)"),
		),
		mcp.WithArray("payload_kinds",
			mcp.Description("Extra payload kinds accepted for this scan only, e.g. [\"ts\", \".m2ts\"]"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("companion_kinds",
			mcp.Description("Extra companion kinds linked for this scan only, e.g. [\"edl\"]"),
			mcp.WithStringItems(),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(scanTool, s.handleScan)

	cleanupTool := mcp.NewTool("strmlink_cleanup",
		mcp.WithDescription("Remove symbolic links whose targets no longer exist. Regular files, directories and working links are left alone."),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Absolute path of the library directory to clean"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Descend into subdirectories (default: from config)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(cleanupTool, s.handleCleanup)

	kindsTool := mcp.NewTool("strmlink_kinds",
		mcp.WithDescription("List the registered payload kinds (container extensions a pointer file may declare) and companion kinds (sibling files that get kind-qualified links)."),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(kindsTool, s.handleKinds)
}

func formatArg(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	format := request.GetString("format", "json")
	if format != "json" && format != "toon" {
		return "", mcp.NewToolResultError("format must be 'json' or 'toon'")
	}
	return format, nil
}

func (s *Server) handleScan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError("directory parameter is required"), nil
	}
	format, errResult := formatArg(request)
	if errResult != nil {
		return errResult, nil
	}

	report, err := s.engine.Scan(ctx, dir, engine.ScanOptions{
		Recursive: request.GetBool("recursive", s.recursive),
		DryRun:    request.GetBool("dry_run", false),
		Overrides: extensions.Overrides{
			PayloadKinds:   request.GetStringSlice("payload_kinds", nil),
			CompanionKinds: request.GetStringSlice("companion_kinds", nil),
		},
	})
	if err != nil {
		return toolError(err, format), nil
	}
	return s.result(report, format)
}

func (s *Server) handleCleanup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError("directory parameter is required"), nil
	}
	format, errResult := formatArg(request)
	if errResult != nil {
		return errResult, nil
	}

	res, err := s.engine.Cleanup(ctx, dir, request.GetBool("recursive", s.recursive))
	if err != nil {
		return toolError(err, format), nil
	}
	return s.result(res, format)
}

func (s *Server) handleKinds(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, errResult := formatArg(request)
	if errResult != nil {
		return errResult, nil
	}
	payload, companion := s.engine.ListKinds()
	return s.result(Kinds{Payload: payload, Companion: companion}, format)
}

func (s *Server) result(data any, format string) (*mcp.CallToolResult, error) {
	output, err := encodeOutput(data, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func toolError(err error, format string) *mcp.CallToolResult {
	output, encErr := encodeOutput(ToolError{Kind: linker.KindOf(err), Error: err.Error()}, format)
	if encErr != nil {
		output = err.Error()
	}
	return mcp.NewToolResultError(output)
}

// Serve runs the server on stdin/stdout until the input closes.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}
