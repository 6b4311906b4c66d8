// Package kawatrpc provides an XML-RPC client over HTTP with composable
// request plumbing:
//
//   - Immutable client configuration from a URL or discrete options
//   - Header processor chain for cross-cutting request/response header work
//   - Cookie jar with automatic Cookie / Set-Cookie propagation
//   - Per-call orchestration reconciling transport completion and body
//     deserialization into exactly one callback invocation
//   - Pluggable Serializer / Deserializer collaborators (an XML-RPC codec
//     ships as the default)
//   - Gzip request compression and transparent response decompression
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Construction never fails – absent fields resolve to defaults
//   - Safe concurrent use of a single *Client instance over one pooled
//     transport
//
// Typical usage:
//
//	client := kawatrpc.New(
//	    kawatrpc.WithURL("http://localhost:9090/RPC2"),
//	    kawatrpc.WithCookies(),
//	)
//	client.MethodCall(ctx, "echo", []any{"hello"}, func(err error, value any) {
//	    ...
//	})
//
// Retries, call cancellation and call-level timeouts are deliberately out of
// scope; time-bounding is delegated to the transport's keep-alive and socket
// settings.
package kawatrpc
