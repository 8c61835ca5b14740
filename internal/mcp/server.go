// Package mcp implements the stdio JSON-RPC 2.0 tool-call surface
// described in spec §6: a fixed set of ten tools backed by
// internal/dispatcher and internal/storage.
package mcp

import (
	"bufio"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/rijuma/ctxhelpr/internal/logging"
)

// ToolHandler executes one tool call and returns the JSON-serializable
// result, or a *errors.CtxError describing why it failed.
type ToolHandler func(params map[string]interface{}) (interface{}, error)

// Server is the stdio MCP server: it reads one JSON-RPC message per
// line from stdin and writes one JSON-RPC message per line to stdout.
type Server struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	logger  *logging.Logger
	tools   map[string]Tool
	handlers map[string]ToolHandler
}

// NewServer constructs a Server with the given tool registry. handlers
// must have an entry for every tool in tools.
func NewServer(tools []Tool, handlers map[string]ToolHandler, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	toolsByName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		toolsByName[t.Name] = t
	}
	return &Server{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		logger:   logger,
		tools:    toolsByName,
		handlers: handlers,
	}
}

// SetStdin overrides the input stream; used by tests.
func (s *Server) SetStdin(r io.Reader) {
	s.stdin = r
	s.scanner = nil
}

// SetStdout overrides the output stream; used by tests.
func (s *Server) SetStdout(w io.Writer) {
	s.stdout = w
}

// Start runs the read-dispatch-write loop until stdin is exhausted or
// a read error occurs other than EOF.
func (s *Server) Start() error {
	for {
		msg, err := s.readMessage()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if s.scanner != nil && s.scanner.Err() != nil {
				return err
			}
			s.logger.Warn("malformed message on stdin", map[string]interface{}{"error": err.Error()})
			if werr := s.writeError(nil, ParseError, "parse error: "+err.Error()); werr != nil {
				return werr
			}
			continue
		}

		reqID := uuid.NewString()
		resp := s.handleMessage(reqID, msg)
		if resp == nil {
			continue
		}
		if err := s.writeMessage(resp); err != nil {
			return err
		}
	}
}
