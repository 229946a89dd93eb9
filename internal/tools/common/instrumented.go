package common

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/taskplugin/internal/instrumentation"
	"github.com/teemow/taskplugin/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type resultCountKey struct{}

// SetResultCount reports how many items a tool returned. It is a no-op
// outside an instrumented handler.
func SetResultCount(ctx context.Context, n int) {
	if c, ok := ctx.Value(resultCountKey{}).(*atomic.Int64); ok {
		c.Store(int64(n))
	}
}

// Target names the content resource and provider operation behind a tool.
type Target struct {
	Resource  string
	Operation string
}

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and
// audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", target, sc, handler))
func InstrumentedToolHandler(toolName string, target Target, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attrs := instrumentation.NewSpanAttributeBuilder().
			WithResource(target.Resource).
			WithOperation(target.Operation).
			WithReadOnly(true).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		count := new(atomic.Int64)
		count.Store(-1)
		ctx = context.WithValue(ctx, resultCountKey{}, count)

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithArguments(request.GetArguments()).
			WithTarget(target.Resource, target.Operation).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		if n := count.Load(); n >= 0 {
			invocation.WithResultCount(int(n))
		}

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			instrumentation.AddSpanEvent(span, "tool_result_error")
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, duration)
		}
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
