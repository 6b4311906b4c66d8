package kawatrpc

import (
	"io"
	"net/http"
)

// Callback receives the outcome of a method call. Exactly one of err and
// value is non-nil (a call returning a valid XML-RPC nil yields both nil).
// It is invoked exactly once per MethodCall invocation.
type Callback func(err error, value any)

// Serializer encodes a method name and parameter sequence into a request
// body, already converted to the requested charset.
type Serializer interface {
	SerializeMethodCall(method string, params []any, encoding string) ([]byte, error)
}

// Deserializer converts a streamed response body into a result value, a
// fault error, or a parse error.
type Deserializer interface {
	DeserializeMethodResponse(r io.Reader) (any, error)
}

// DeserializerFactory builds a Deserializer for the configured response
// charset. One Deserializer is created per in-flight call.
type DeserializerFactory func(responseEncoding string) Deserializer

// HeaderProcessor hooks into the outgoing and incoming header flow of every
// call. ComposeRequest mutates the working copy of the outgoing headers
// before dispatch; ParseResponse observes the response headers after the
// transport completes.
type HeaderProcessor interface {
	ComposeRequest(headers http.Header)
	ParseResponse(headers http.Header)
}

// GzipMode selects request/response compression behavior.
type GzipMode int

const (
	// GzipNone disables compression entirely.
	GzipNone GzipMode = iota
	// GzipResponse advertises Accept-Encoding: gzip and transparently
	// decompresses gzip response bodies.
	GzipResponse
	// GzipBoth additionally compresses the request body and declares
	// Content-Encoding: gzip.
	GzipBoth
)

func (m GzipMode) String() string {
	switch m {
	case GzipResponse:
		return "response"
	case GzipBoth:
		return "both"
	default:
		return "none"
	}
}

// BasicAuth holds credentials for the Authorization header. Both fields
// must be non-empty for the header to be synthesized.
type BasicAuth struct {
	User string
	Pass string
}

// Option configures a Client at construction time.
type Option func(*Client)
