// Package command implements control plane command handling over the
// JSON-RPC-over-UDS transport (uds_server.go, uds_client.go).
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"icc.tech/scheduled/internal/applier"
	"icc.tech/scheduled/internal/condition"
	"icc.tech/scheduled/internal/config"
	"icc.tech/scheduled/internal/event"
	"icc.tech/scheduled/internal/schederr"
)

// ConfigLoader reloads the configuration tree from disk. The reconfigure
// command does not go through it; handleReconfigure calls config.Load
// directly.
type ConfigLoader interface {
	Load(path string) (*config.GlobalConfig, error)
}

// CommandHandler dispatches control-plane JSON-RPC commands against the
// live registries. It also implements condition.ActivityTracker, so an
// IdleCondition can observe "time since the last control command".
type CommandHandler struct {
	condReg    *condition.Registry
	eventReg   *event.Registry
	applier    *applier.Applier
	configPath string
	startTime  time.Time

	mu           sync.Mutex
	lastActivity time.Time
}

// NewCommandHandler constructs a handler bound to the live registries and
// applier. configPath is re-read on every reconfigure command.
func NewCommandHandler(condReg *condition.Registry, eventReg *event.Registry, app *applier.Applier, configPath string) *CommandHandler {
	now := time.Now()
	return &CommandHandler{
		condReg:      condReg,
		eventReg:     eventReg,
		applier:      app,
		configPath:   configPath,
		startTime:    now,
		lastActivity: now,
	}
}

// LastActivity implements condition.ActivityTracker.
func (h *CommandHandler) LastActivity() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastActivity
}

func (h *CommandHandler) recordActivity() {
	h.mu.Lock()
	h.lastActivity = time.Now()
	h.mu.Unlock()
}

// Command is a control-plane JSON-RPC request.
type Command struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     string          `json:"id"`
}

// Response is a control-plane JSON-RPC response.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo carries a stable error code plus a human-readable message.
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC parse/request error codes, plus one per schederr.Kind so
// callers can branch on a stable code rather than parsing Message.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603

	ErrCodeConfigInvalid   = -32001
	ErrCodeNotFound        = -32002
	ErrCodeAlreadyExists   = -32003
	ErrCodeWouldBlock      = -32004
	ErrCodeUnsupported     = -32005
	ErrCodeListenerFailure = -32006
	ErrCodeTaskFailure     = -32007
)

func errCodeFor(err error) int {
	switch schederr.KindOf(err) {
	case schederr.KindConfigInvalid:
		return ErrCodeConfigInvalid
	case schederr.KindNotFound:
		return ErrCodeNotFound
	case schederr.KindAlreadyExists:
		return ErrCodeAlreadyExists
	case schederr.KindWouldBlock:
		return ErrCodeWouldBlock
	case schederr.KindUnsupported:
		return ErrCodeUnsupported
	case schederr.KindListenerFailure:
		return ErrCodeListenerFailure
	case schederr.KindTaskFailure:
		return ErrCodeTaskFailure
	default:
		return ErrCodeInternalError
	}
}

func errResponse(id string, code int, format string, args ...interface{}) Response {
	return Response{ID: id, Error: &ErrorInfo{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// Handle dispatches cmd to the matching control operation.
func (h *CommandHandler) Handle(ctx context.Context, cmd Command) Response {
	h.recordActivity()
	slog.Info("handling command", slog.String("method", cmd.Method), slog.String("id", cmd.ID))

	switch cmd.Method {
	case "reset":
		return h.handleConditionControl(cmd, h.condReg.Reset)
	case "suspend":
		return h.handleConditionControl(cmd, h.condReg.Suspend)
	case "resume":
		return h.handleResume(cmd)
	case "trigger":
		return h.handleTrigger(cmd)
	case "reconfigure":
		return h.handleReconfigure(ctx, cmd)
	case "status":
		return h.handleStatus(cmd)
	default:
		return errResponse(cmd.ID, ErrCodeMethodNotFound, "method %q not found", cmd.Method)
	}
}

// ConditionNameParams names a condition and an optional wait flag,
// shared by reset/suspend/resume.
type ConditionNameParams struct {
	Name string `json:"name"`
	Wait bool   `json:"wait"`
}

func (h *CommandHandler) handleConditionControl(cmd Command, op func(name string, wait bool) error) Response {
	var params ConditionNameParams
	if err := json.Unmarshal(cmd.Params, &params); err != nil {
		return errResponse(cmd.ID, ErrCodeInvalidParams, "invalid params: %v", err)
	}
	if err := op(params.Name, params.Wait); err != nil {
		return errResponse(cmd.ID, errCodeFor(err), "%v", err)
	}
	return Response{ID: cmd.ID, Result: map[string]interface{}{"name": params.Name, "status": "ok"}}
}

func (h *CommandHandler) handleResume(cmd Command) Response {
	var params ConditionNameParams
	if err := json.Unmarshal(cmd.Params, &params); err != nil {
		return errResponse(cmd.ID, ErrCodeInvalidParams, "invalid params: %v", err)
	}
	resumed, err := h.condReg.Resume(params.Name, params.Wait)
	if err != nil {
		return errResponse(cmd.ID, errCodeFor(err), "%v", err)
	}
	return Response{ID: cmd.ID, Result: map[string]interface{}{"name": params.Name, "resumed": resumed}}
}

// EventNameParams names an event, for trigger.
type EventNameParams struct {
	Name string `json:"name"`
}

func (h *CommandHandler) handleTrigger(cmd Command) Response {
	var params EventNameParams
	if err := json.Unmarshal(cmd.Params, &params); err != nil {
		return errResponse(cmd.ID, ErrCodeInvalidParams, "invalid params: %v", err)
	}
	if err := h.eventReg.Trigger(params.Name); err != nil {
		return errResponse(cmd.ID, errCodeFor(err), "%v", err)
	}
	return Response{ID: cmd.ID, Result: map[string]interface{}{"name": params.Name, "status": "triggered"}}
}

func (h *CommandHandler) handleReconfigure(ctx context.Context, cmd Command) Response {
	cfg, err := config.Load(h.configPath)
	if err != nil {
		return errResponse(cmd.ID, ErrCodeConfigInvalid, "load config: %v", err)
	}
	if err := h.applier.Reconfigure(ctx, cfg); err != nil {
		return errResponse(cmd.ID, errCodeFor(err), "reconfigure: %v", err)
	}
	return Response{ID: cmd.ID, Result: map[string]interface{}{"status": "reconfigured"}}
}

func (h *CommandHandler) handleStatus(cmd Command) Response {
	conditions := make(map[string]interface{}, len(h.condReg.Names()))
	for _, name := range h.condReg.Names() {
		busy, _ := h.condReg.Busy(name)
		typ, _ := h.condReg.TypeOf(name)
		conditions[name] = map[string]interface{}{"type": typ, "busy": busy}
	}

	return Response{
		ID: cmd.ID,
		Result: map[string]interface{}{
			"uptime_sec":  int64(time.Since(h.startTime).Seconds()),
			"conditions":  conditions,
			"events":      h.eventReg.Names(),
			"busy_count":  h.condReg.BusyCount(),
		},
	}
}
