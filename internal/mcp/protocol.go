package mcp

import "encoding/json"

// JSON-RPC 2.0 error codes (spec §6, "external protocol").
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// MCPMessage is a JSON-RPC 2.0 request, response, or notification.
type MCPMessage struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *MCPError       `json:"error,omitempty"`
}

// MCPError is the JSON-RPC 2.0 error object.
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *MCPError) Error() string { return e.Message }

// NewErrorMessage builds an error response for id.
func NewErrorMessage(id interface{}, code int, message string, data interface{}) *MCPMessage {
	return &MCPMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: message, Data: data},
	}
}

// NewResultMessage builds a success response for id.
func NewResultMessage(id interface{}, result interface{}) *MCPMessage {
	return &MCPMessage{Jsonrpc: "2.0", ID: id, Result: result}
}

// NewNotificationMessage builds a notification (no id, no response expected).
func NewNotificationMessage(method string, params interface{}) *MCPMessage {
	raw, _ := json.Marshal(params)
	return &MCPMessage{Jsonrpc: "2.0", Method: method, Params: raw}
}

// IsRequest reports whether msg expects a response (has a method and an id).
func (m *MCPMessage) IsRequest() bool {
	return m.Method != "" && m.ID != nil
}

// IsNotification reports whether msg is a one-way notification.
func (m *MCPMessage) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

// IsResponse reports whether msg is a reply to a prior request.
func (m *MCPMessage) IsResponse() bool {
	return m.Method == "" && (m.Result != nil || m.Error != nil)
}
