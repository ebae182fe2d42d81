package device

import (
	"fmt"
	"strings"
)

// Platform error codes, the closed set reported by device location sources.
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// ErrorKind classifies why a device position could not be acquired. The
// distinction drives different fallback messaging: a user denial and an
// administrator policy block look similar on the wire but need different
// guidance.
type ErrorKind string

const (
	KindPolicyBlocked       ErrorKind = "policy_blocked"
	KindPermissionDenied    ErrorKind = "permission_denied"
	KindPositionUnavailable ErrorKind = "position_unavailable"
	KindTimeout             ErrorKind = "timeout"
	KindUnknown             ErrorKind = "unknown"
)

// AcquisitionError is a classified device acquisition failure carrying the
// original platform code and message.
type AcquisitionError struct {
	Kind    ErrorKind
	Code    int
	Message string
}

func (e *AcquisitionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("location acquisition failed (%s)", e.Kind)
	}
	return fmt.Sprintf("location acquisition failed (%s): %s", e.Kind, e.Message)
}

// UserMessage renders the failure for warning strings surfaced to callers.
func (e *AcquisitionError) UserMessage() string {
	switch e.Kind {
	case KindPolicyBlocked:
		return "location access is blocked by a browser or device policy"
	case KindPermissionDenied:
		return "location permission was denied"
	case KindPositionUnavailable:
		return "device position is unavailable"
	case KindTimeout:
		return "timed out waiting for a position fix"
	default:
		return "location request failed without details; this usually indicates a browser security restriction"
	}
}

// Classify maps a platform error code and free-text message to an
// AcquisitionError. Policy blocks are detected by phrasing alone because some
// platforms report them with an empty or ambiguous code; the substring match
// is a best-effort heuristic and the exact phrasing is not assumed stable.
func Classify(code int, message string) *AcquisitionError {
	kind := classifyKind(code, message)
	return &AcquisitionError{Kind: kind, Code: code, Message: message}
}

func classifyKind(code int, message string) ErrorKind {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "permissions policy") || strings.Contains(lower, "disabled"):
		return KindPolicyBlocked
	case code == CodePermissionDenied:
		return KindPermissionDenied
	case code == CodePositionUnavailable:
		return KindPositionUnavailable
	case code == CodeTimeout:
		return KindTimeout
	case code == 0 && message == "":
		// An empty error is almost always a browser security layer refusing
		// to answer, not a bug in the caller.
		return KindUnknown
	default:
		return KindPositionUnavailable
	}
}
