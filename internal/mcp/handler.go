package mcp

import (
	"encoding/json"

	ctxerrors "github.com/rijuma/ctxhelpr/internal/errors"
)

const protocolVersion = "2024-11-05"

// handleMessage dispatches one incoming message and returns the
// response to write, or nil for notifications (which get no reply).
func (s *Server) handleMessage(reqID string, msg *MCPMessage) *MCPMessage {
	if msg.IsNotification() {
		s.logger.Debug("notification received", map[string]interface{}{"method": msg.Method, "req_id": reqID})
		return nil
	}
	if !msg.IsRequest() {
		return NewErrorMessage(msg.ID, InvalidRequest, "message is neither a request nor a notification", nil)
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "tools/list":
		return s.handleListTools(msg)
	case "tools/call":
		return s.handleCallTool(msg)
	default:
		return NewErrorMessage(msg.ID, MethodNotFound, "unknown method: "+msg.Method, nil)
	}
}

func (s *Server) handleInitialize(msg *MCPMessage) *MCPMessage {
	return NewResultMessage(msg.ID, map[string]interface{}{
		"protocolVersion": protocolVersion,
		"serverInfo":      map[string]interface{}{"name": "ctxhelpr", "version": "1"},
		"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
	})
}

func (s *Server) handleListTools(msg *MCPMessage) *MCPMessage {
	defs := make([]Tool, 0, len(s.tools))
	for _, t := range GetToolDefinitions() {
		if _, ok := s.handlers[t.Name]; ok {
			defs = append(defs, t)
		}
	}
	return NewResultMessage(msg.ID, map[string]interface{}{"tools": defs})
}

type callToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (s *Server) handleCallTool(msg *MCPMessage) *MCPMessage {
	var params callToolParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return NewErrorMessage(msg.ID, InvalidParams, "invalid tools/call params: "+err.Error(), nil)
		}
	}

	handler, ok := s.handlers[params.Name]
	if !ok {
		return NewErrorMessage(msg.ID, InvalidParams, "unknown tool: "+params.Name, nil)
	}

	result, err := handler(params.Arguments)
	if err != nil {
		return NewResultMessage(msg.ID, toolContent(errorPayload(err)))
	}
	return NewResultMessage(msg.ID, toolContent(result))
}

// toolContent wraps a tool's JSON-serializable result in the MCP
// content-block shape every tools/call response uses.
func toolContent(payload interface{}) map[string]interface{} {
	text, err := json.Marshal(payload)
	if err != nil {
		text = []byte(`{"error":"failed to marshal tool result"}`)
	}
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(text)},
		},
	}
}

// errorPayload converts err into the structured error response spec
// §7 describes: handlers never panic, and a CtxError's code/message/
// suggested fix surface directly so a retrying caller (e.g. on
// NotIndexed) can act on it without string-matching.
func errorPayload(err error) map[string]interface{} {
	var ce *ctxerrors.CtxError
	if ctxerrors.As(err, &ce) {
		payload := map[string]interface{}{
			"error":   true,
			"code":    string(ce.Code),
			"message": ce.Message,
		}
		if ce.Field != "" {
			payload["field"] = ce.Field
		}
		if ce.SuggestedFix != "" {
			payload["suggested_fix"] = ce.SuggestedFix
		}
		return payload
	}
	return map[string]interface{}{"error": true, "code": "internal_error", "message": err.Error()}
}
