package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, handlers map[string]ToolHandler) (*Server, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	s := NewServer(GetToolDefinitions(), handlers, nil)
	s.SetStdout(out)
	return s, out
}

func readAllResponses(t *testing.T, out *bytes.Buffer) []MCPMessage {
	t.Helper()
	var msgs []MCPMessage
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var m MCPMessage
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("unmarshal response %q: %v", line, err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func TestServerInitialize(t *testing.T) {
	s, out := newTestServer(t, nil)
	s.SetStdin(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n"))

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	msgs := readAllResponses(t, out)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 response, got %d", len(msgs))
	}
	if msgs[0].Error != nil {
		t.Fatalf("unexpected error: %+v", msgs[0].Error)
	}
}

func TestServerListToolsReturnsRegisteredOnly(t *testing.T) {
	handlers := map[string]ToolHandler{
		"index_status": func(params map[string]interface{}) (interface{}, error) { return "ok", nil },
	}
	s, out := newTestServer(t, handlers)
	s.SetStdin(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n"))

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	msgs := readAllResponses(t, out)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 response, got %d", len(msgs))
	}
	result, ok := msgs[0].Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected object result, got %T", msgs[0].Result)
	}
	tools, ok := result["tools"].([]interface{})
	if !ok || len(tools) != 1 {
		t.Fatalf("expected exactly 1 registered tool, got %+v", result["tools"])
	}
}

func TestServerCallToolUnknownName(t *testing.T) {
	s, out := newTestServer(t, map[string]ToolHandler{})
	s.SetStdin(strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"nope","arguments":{}}}` + "\n"))

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	msgs := readAllResponses(t, out)
	if len(msgs) != 1 || msgs[0].Error == nil {
		t.Fatalf("expected a protocol error for unknown tool, got %+v", msgs)
	}
	if msgs[0].Error.Code != InvalidParams {
		t.Fatalf("expected InvalidParams code, got %d", msgs[0].Error.Code)
	}
}

func TestServerCallToolSuccessWrapsContent(t *testing.T) {
	handlers := map[string]ToolHandler{
		"index_status": func(params map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{"total_files": 3}, nil
		},
	}
	s, out := newTestServer(t, handlers)
	s.SetStdin(strings.NewReader(`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"index_status","arguments":{"path":"/tmp/x"}}}` + "\n"))

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	msgs := readAllResponses(t, out)
	if len(msgs) != 1 || msgs[0].Error != nil {
		t.Fatalf("unexpected error response: %+v", msgs)
	}
	result, ok := msgs[0].Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected object result, got %T", msgs[0].Result)
	}
	content, ok := result["content"].([]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("expected single content block, got %+v", result["content"])
	}
}

func TestServerMalformedLineYieldsParseError(t *testing.T) {
	s, out := newTestServer(t, nil)
	s.SetStdin(strings.NewReader("not json\n"))

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	msgs := readAllResponses(t, out)
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != ParseError {
		t.Fatalf("expected a ParseError response, got %+v", msgs)
	}
}
