// Package command implements command channels.
package command

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// UDSClient is a JSON-RPC client over Unix Domain Socket.
type UDSClient struct {
	socketPath string
	timeout    time.Duration
}

// NewUDSClient creates a new UDS client.
func NewUDSClient(socketPath string, timeout time.Duration) *UDSClient {
	if timeout == 0 {
		timeout = 10 * time.Second // Default timeout
	}
	return &UDSClient{
		socketPath: socketPath,
		timeout:    timeout,
	}
}

// Call sends a command and waits for response.
func (c *UDSClient) Call(ctx context.Context, method string, params interface{}) (*Response, error) {
	// Create connection with timeout
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	// Set deadline
	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetDeadline(deadline)

	// Marshal params
	var paramsJSON json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		paramsJSON = data
	}

	// Create JSON-RPC request
	reqID := uuid.NewString()
	req := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  paramsJSON,
		ID:      reqID,
	}

	// Send request
	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return nil, fmt.Errorf("connection closed without response")
	}

	// Parse JSON-RPC response
	var jsonrpcResp JSONRPCResponse
	if err := json.Unmarshal(scanner.Bytes(), &jsonrpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Verify response ID matches (convert both to string for comparison)
	respIDStr := fmt.Sprintf("%v", jsonrpcResp.ID)
	if respIDStr != reqID {
		return nil, fmt.Errorf("response ID mismatch: expected %v, got %v", reqID, respIDStr)
	}

	// Convert to internal Response format
	resp := &Response{
		ID:     fmt.Sprintf("%v", jsonrpcResp.ID),
		Result: jsonrpcResp.Result,
		Error:  jsonrpcResp.Error,
	}

	return resp, nil
}

// Reset is a convenience method for the reset command.
func (c *UDSClient) Reset(ctx context.Context, name string, wait bool) (*Response, error) {
	return c.Call(ctx, "reset", ConditionNameParams{Name: name, Wait: wait})
}

// Suspend is a convenience method for the suspend command.
func (c *UDSClient) Suspend(ctx context.Context, name string, wait bool) (*Response, error) {
	return c.Call(ctx, "suspend", ConditionNameParams{Name: name, Wait: wait})
}

// Resume is a convenience method for the resume command.
func (c *UDSClient) Resume(ctx context.Context, name string, wait bool) (*Response, error) {
	return c.Call(ctx, "resume", ConditionNameParams{Name: name, Wait: wait})
}

// Trigger is a convenience method for the trigger command.
func (c *UDSClient) Trigger(ctx context.Context, name string) (*Response, error) {
	return c.Call(ctx, "trigger", EventNameParams{Name: name})
}

// Reconfigure is a convenience method for the reconfigure command.
func (c *UDSClient) Reconfigure(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "reconfigure", nil)
}

// Status is a convenience method for the status command.
func (c *UDSClient) Status(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "status", nil)
}

// Ping checks whether the daemon is alive, using status as the probe.
func (c *UDSClient) Ping(ctx context.Context) error {
	_, err := c.Status(ctx)
	return err
}
