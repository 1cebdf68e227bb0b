// Package server implements the MCP (Model Context Protocol) server for
// presentation font analysis and repair tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the deck, analysis,
// and session packages through the MCP protocol. It's designed to work with
// Claude and other MCP-compatible clients, enabling AI systems to inspect and
// fix font usage in .pptx presentations.
//
// # Protocol
//
// Two transports serve the same request surface:
//   - stdio: JSON-RPC requests on stdin (one per line), responses on stdout
//   - HTTP: one JSON-RPC exchange per POST to /mcp, liveness on GET /healthz
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Session Lifecycle:
//   - ppt_open: Open a presentation, get a session id
//   - ppt_deck_info: Slide count, canvas size, metadata
//   - ppt_close: Release a session
//
// Font Analysis and Repair:
//   - ppt_analyze_fonts: Classify fonts as used/unused/inconsistent
//   - ppt_replace_font: Rewrite one font to another
//   - ppt_remove_shapes: Delete shapes by slide number and name
//   - ppt_save: Write the presentation out
//   - ppt_update_and_save: Remove, replace, and save in one call
//
// Embedded Media:
//   - ppt_list_media: Picture inventory with palette and brightness
//   - ppt_scan_picture_text: OCR text trapped inside pictures
//
// # Sessions
//
// Every ppt_open creates an independent session addressed by an opaque id;
// all other tools take that id. Sessions live until ppt_close or process
// exit. The session layer enforces the analyze-before-replace ordering: a
// replacement font is only accepted when a fresh ppt_analyze_fonts run shows
// it visibly in use.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable description naming the error kind
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
