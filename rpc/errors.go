package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/kbukum/streamcall/errors"
	"github.com/kbukum/streamcall/httpclient"
	"github.com/kbukum/streamcall/resilience"
	"github.com/kbukum/streamcall/stream"
)

// ToAppError converts a call error into an AppError. target names the
// remote side in connection failures.
func ToAppError(err error, target string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return apperrors.Cancelled("call").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded), httpclient.IsTimeout(err):
		return apperrors.Timeout(target).WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.Busy("rpc").WithCause(err)
	case httpclient.IsCircuitOpen(err):
		return apperrors.CircuitOpen(target).WithCause(err)
	case errors.Is(err, resilience.ErrRateLimited):
		return apperrors.RateLimited().WithCause(err)
	}

	var se *stream.Error
	if !errors.As(err, &se) {
		return apperrors.Internal(err)
	}
	switch se.Kind {
	case stream.KindStatus:
		return statusError(se)
	case stream.KindConversion:
		return apperrors.DecodeFailed(se.Literal, se.Err)
	case stream.KindProtocol:
		return apperrors.ProtocolViolation(se.Reason)
	default:
		return apperrors.ConnectionFailed(target, se.Err)
	}
}

// statusError keeps the remote error code when the body is a streamcall
// error envelope.
func statusError(se *stream.Error) *apperrors.AppError {
	e := apperrors.UpstreamStatus(se.StatusCode, se.Reason)
	body := strings.TrimPrefix(se.Reason, http.StatusText(se.StatusCode)+": ")
	if remote, ok := apperrors.ParseResponse([]byte(body)); ok {
		e.WithDetail("remote_code", string(remote.Code))
		if remote.Retryable {
			e.Retryable = true
		}
	}
	return e
}
