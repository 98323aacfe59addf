// Package server implements the MCP (Model Context Protocol) server for the
// Porto street guide.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image:
//   - image_load: Load a photo and describe it
//   - image_crop: Extract rectangular region
//
// Text:
//   - text_ocr_fragments: Recognize words with their bounding regions
//   - text_reconstruct: Rebuild reading-order text from fragments
//   - text_detect_language: Check that the text is Portuguese
//   - text_translate: Translate line by line
//
// Location:
//   - address_detect: Street address keyword check
//   - address_geocode: Address to coordinates, city centre fallback
//   - landmarks_nearby: Nearest landmarks to a coordinate
//
// Pipeline:
//   - guide_scan: All of the above on one photo
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses with:
//   - code: -32602 (bad arguments or unknown tool), -32000 (tool execution
//     failure) or -32601 (unknown method)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(g, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
