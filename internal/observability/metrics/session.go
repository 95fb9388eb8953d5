// Package metrics emits standardised session and gateway metrics.
package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/socialadify/adify-console/internal/observability/errors"
	"github.com/socialadify/adify-console/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	// ResultDiscarded marks a response dropped because the session moved on.
	ResultDiscarded = "discarded"
	ResultNoop      = "noop"
)

// Session operations.
const (
	OpHydrate = "hydrate"
	OpLogin   = "login"
	OpSignup  = "signup"
	OpLogout  = "logout"
	OpRefresh = "refresh"
	OpCleanup = "cleanup"
	OpAccount = "account"
	// OpReconcile aligns memory with storage changed by another process.
	OpReconcile = "reconcile"
)

// SessionMetric captures one session state transition.
type SessionMetric struct {
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitSessionTransition emits session.transition and, when timed, session.duration.
func EmitSessionTransition(sink statsd.Sink, in SessionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_kind"] = class
		}
	}

	sink.Count("session.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("session.duration", in.Duration, CloneTags(tags))
	}
}

// GatewayMetric captures one remote API call.
type GatewayMetric struct {
	Operation string
	Status    int
	Duration  time.Duration
	Err       error
}

// EmitGatewayCall emits gateway.request and gateway.duration.
func EmitGatewayCall(sink statsd.Sink, in GatewayMetric) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if in.Err != nil {
		result = ResultError
	}
	tags := map[string]string{
		"operation": in.Operation,
		"result":    result,
		"status":    strconv.Itoa(in.Status),
	}
	if in.Err != nil {
		tags["error_kind"] = obserrors.Classify(in.Err)
	}

	sink.Count("gateway.request", 1, tags)
	sink.Timing("gateway.duration", in.Duration, CloneTags(tags))
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
