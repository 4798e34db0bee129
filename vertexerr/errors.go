// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package vertexerr defines the error taxonomy shared by every package of the SDK.
//
// Errors carry the operation name, the resource name, the server status code
// and, for long-running operations, the operation id, so that a failure can be
// correlated with server-side logs. Callers match kinds with [errors.Is]:
//
//	if errors.Is(err, vertexerr.ErrNotFound) {
//		// ...
//	}
package vertexerr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies an [Error].
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindConfigIncomplete
	KindNotFound
	KindAlreadyExists
	KindPermissionDenied
	KindEulaNotAccepted
	KindOperationFailed
	KindOperationCancelled
	KindOperationTimeout
	KindPartialSuccess
	KindTransport
	KindUnsupportedDataType
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindInvalidArgument:     "invalid argument",
	KindConfigIncomplete:    "configuration incomplete",
	KindNotFound:            "not found",
	KindAlreadyExists:       "already exists",
	KindPermissionDenied:    "permission denied",
	KindEulaNotAccepted:     "EULA not accepted",
	KindOperationFailed:     "operation failed",
	KindOperationCancelled:  "operation cancelled",
	KindOperationTimeout:    "operation timed out",
	KindPartialSuccess:      "partial success",
	KindTransport:           "transport error",
	KindUnsupportedDataType: "unsupported data type",
}

// String returns a human readable name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for use with [errors.Is].
var (
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrConfigIncomplete    = &Error{Kind: KindConfigIncomplete}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrAlreadyExists       = &Error{Kind: KindAlreadyExists}
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied}
	ErrEulaNotAccepted     = &Error{Kind: KindEulaNotAccepted}
	ErrOperationFailed     = &Error{Kind: KindOperationFailed}
	ErrOperationCancelled  = &Error{Kind: KindOperationCancelled}
	ErrOperationTimeout    = &Error{Kind: KindOperationTimeout}
	ErrPartialSuccess      = &Error{Kind: KindPartialSuccess}
	ErrTransport           = &Error{Kind: KindTransport}
	ErrUnsupportedDataType = &Error{Kind: KindUnsupportedDataType}
)

// Error is the error type returned by the SDK.
type Error struct {
	Kind Kind

	// Op is the SDK operation that failed, e.g. "ModelMonitor.Create".
	Op string

	// Resource is the resource name involved, if any.
	Resource string

	// Code is the server status code, if the error came from the server.
	Code codes.Code

	// OperationID is the long-running operation name, if any.
	OperationID string

	// Detail is the server or validation message.
	Detail string

	// Err is the underlying error.
	Err error
}

// Error implements [error].
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
	}
	if e.Resource != "" {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(e.Resource)
	}
	if sb.Len() > 0 {
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())

	var extra []string
	if e.Code != codes.OK {
		extra = append(extra, "code="+e.Code.String())
	}
	if e.OperationID != "" {
		extra = append(extra, "operation="+e.OperationID)
	}
	if len(extra) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(extra, ", "))
		sb.WriteByte(')')
	}

	detail := e.Detail
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if detail != "" {
		sb.WriteString(": ")
		sb.WriteString(detail)
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same kind.
//
// An [KindEulaNotAccepted] error also matches [ErrPermissionDenied].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.isSentinel() {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindPermissionDenied && e.Kind == KindEulaNotAccepted
}

func (e *Error) isSentinel() bool {
	return e.Op == "" && e.Resource == "" && e.Code == codes.OK && e.OperationID == "" && e.Detail == "" && e.Err == nil
}

// New returns an [*Error] of the given kind.
func New(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// InvalidArgument returns a [KindInvalidArgument] error with a formatted detail.
func InvalidArgument(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// WithResource returns a copy of err naming the resource.
func WithResource(err error, resource string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Resource = resource
	return &cp
}

// KindOf returns the [Kind] of err, or [KindUnknown].
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FromStatus builds an [KindOperationFailed] error from an operation status.
func FromStatus(op, resource, operationID string, st *rpcstatus.Status) *Error {
	kind := KindOperationFailed
	code := codes.Unknown
	detail := ""
	if st != nil {
		code = codes.Code(st.GetCode())
		detail = st.GetMessage()
	}
	if code == codes.Canceled {
		kind = KindOperationCancelled
	}
	return &Error{
		Kind:        kind,
		Op:          op,
		Resource:    resource,
		Code:        code,
		OperationID: operationID,
		Detail:      detail,
	}
}

// FromRPC classifies an RPC error returned by a gRPC or REST client.
//
// nil is returned unchanged, as is an error that already is an [*Error].
func FromRPC(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return &Error{
			Kind:     kindForCode(st.Code()),
			Op:       op,
			Resource: resource,
			Code:     st.Code(),
			Detail:   st.Message(),
			Err:      err,
		}
	}

	if ae, ok := apierror.FromError(err); ok {
		code := codeForHTTP(ae.HTTPCode())
		if gs := ae.GRPCStatus(); gs != nil && gs.Code() != codes.Unknown {
			code = gs.Code()
		}
		return &Error{
			Kind:     kindForCode(code),
			Op:       op,
			Resource: resource,
			Code:     code,
			Detail:   ae.Reason(),
			Err:      err,
		}
	}

	return &Error{Kind: KindTransport, Op: op, Resource: resource, Err: err}
}

// IsRetryable reports whether err is a transient transport failure.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		switch e.Code {
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
			return true
		}
		return false
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
			return true
		}
	}
	return false
}

func kindForCode(code codes.Code) Kind {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return KindInvalidArgument
	case codes.NotFound:
		return KindNotFound
	case codes.AlreadyExists:
		return KindAlreadyExists
	case codes.PermissionDenied, codes.Unauthenticated:
		return KindPermissionDenied
	case codes.Canceled:
		return KindOperationCancelled
	case codes.DeadlineExceeded, codes.Unavailable, codes.ResourceExhausted, codes.Aborted, codes.Internal, codes.Unknown:
		return KindTransport
	default:
		return KindUnknown
	}
}

func codeForHTTP(httpCode int) codes.Code {
	switch httpCode {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	default:
		return codes.Unknown
	}
}
