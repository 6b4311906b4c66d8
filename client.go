package kawatrpc

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/kawatrpc/kawatrpc/internal/xmlrpc"
)

// Client is an XML-RPC client over HTTP. Its configuration is resolved once
// during New and immutable afterwards; many calls may be in flight
// concurrently against one Client, sharing a pooled transport and, when
// enabled, one cookie jar. It is safe for concurrent use.
type Client struct {
	optHost             string
	optPort             int
	optPath             string
	optURL              string
	optSecure           bool
	optKeepAlive        time.Duration
	optGzip             GzipMode
	optUserAgent        string
	optHeaders          map[string]string
	optBasicAuth        *BasicAuth
	optEncoding         string
	optResponseEncoding string
	optCookies          bool
	optProcessors       []HeaderProcessor

	cfg             ClientConfig
	httpClient      *http.Client
	chain           *processorChain
	jar             *CookieJar
	serializer      Serializer
	newDeserializer DeserializerFactory
	metrics         *MetricsCollector
	logger          Logger
	debug           *DebugConfig
}

// New constructs a Client from the provided functional options.
// Construction never fails: absent or partial fields resolve to defaults.
func New(options ...Option) *Client {
	c := &Client{}
	for _, option := range options {
		option(c)
	}

	c.cfg = c.normalizeConfig()

	c.chain = &processorChain{}
	if c.optCookies {
		c.jar = NewCookieJar()
		c.chain.register(c.jar)
	}
	for _, p := range c.optProcessors {
		c.chain.register(p)
	}

	if c.serializer == nil {
		c.serializer = xmlrpc.NewSerializer()
	}
	if c.newDeserializer == nil {
		c.newDeserializer = func(responseEncoding string) Deserializer {
			return xmlrpc.NewDeserializer(responseEncoding)
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: newTransport(c.cfg)}
	}
	if c.debug == nil {
		c.debug = DefaultDebugConfig()
	}

	return c
}

// newTransport builds the pooled transport for cfg. Compression is managed
// by the client itself (Accept-Encoding is an explicit header), so the
// transport's automatic gzip handling is disabled.
func newTransport(cfg ClientConfig) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 8,
		DisableCompression:  true,
	}
	if cfg.KeepAlive > 0 {
		t.IdleConnTimeout = cfg.KeepAlive
	} else {
		t.DisableKeepAlives = true
	}
	return t
}

// Config returns the resolved immutable configuration.
func (c *Client) Config() ClientConfig {
	return c.cfg
}

// GetCookie returns the jar's current value for name, or "" when absent.
// It fails with a ConfigurationError when cookie support was not enabled at
// construction; the check is synchronous and precedes any network I/O.
func (c *Client) GetCookie(name string) (string, error) {
	if c.jar == nil {
		return "", c.cookiesDisabledError()
	}
	value, _ := c.jar.Get(name)
	return value, nil
}

// SetCookie stores or overwrites the outgoing value for name. Like
// GetCookie it fails with a ConfigurationError when no jar was configured.
func (c *Client) SetCookie(name, value string) error {
	if c.jar == nil {
		return c.cookiesDisabledError()
	}
	c.jar.Set(name, value)
	return nil
}

func (c *Client) cookiesDisabledError() error {
	return &ClientError{
		Type:      ErrorTypeConfiguration,
		Message:   "cookie support was not enabled at construction",
		Cause:     ErrCookiesDisabled,
		Timestamp: time.Now(),
	}
}

// MethodCall issues one XML-RPC call. It is non-blocking: the HTTP exchange
// and body deserialization run on their own goroutines and callback is
// invoked exactly once with either (err, nil) or (nil, value). ctx is
// attached to the outgoing request only; no cancellation or timeout beyond
// the transport's own is imposed at this layer, and no retries are
// attempted for any failure kind.
func (c *Client) MethodCall(ctx context.Context, method string, params []any, callback Callback) {
	if callback == nil {
		callback = func(error, any) {}
	}
	start := time.Now()

	if c.metrics != nil {
		c.metrics.RecordCallStart(method)
	}

	pc := newPendingCall(method, c.instrumentCallback(method, callback, start))

	if c.debug.Enabled && c.debug.LogCalls && c.logger != nil {
		c.logger.Debug("Dispatching method call", "method", method, "url", c.cfg.URL)
	}

	body, err := c.serializer.SerializeMethodCall(method, params, c.cfg.Encoding)
	if err != nil {
		pc.fail(c.newCallError(ErrorTypeEncoding, "cannot serialize method call", err, method, 0, start))
		return
	}

	// Per-call working copy so processors never leak state across calls.
	headers := c.cfg.Headers.Clone()
	c.chain.composeRequest(headers)

	if c.cfg.Gzip == GzipBoth {
		compressed, err := gzipCompress(body)
		if err != nil {
			pc.fail(c.newCallError(ErrorTypeEncoding, "cannot compress request body", err, method, 0, start))
			return
		}
		body = compressed
	}

	if c.debug.Enabled && c.debug.LogHeaders && c.logger != nil {
		c.logger.Debug("Composed request headers", "method", method, "headers", headers)
	}

	go c.dispatch(ctx, pc, method, headers, body, start)
}

// Call is a synchronous convenience wrapper around MethodCall.
func (c *Client) Call(ctx context.Context, method string, params ...any) (any, error) {
	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	c.MethodCall(ctx, method, params, func(err error, value any) {
		done <- outcome{value: value, err: err}
	})
	o := <-done
	return o.value, o.err
}

// dispatch performs the HTTP exchange and coordinates the two terminal
// signals — transport completion and deserializer result — through pc.
func (c *Client) dispatch(ctx context.Context, pc *pendingCall, method string, headers http.Header, body []byte, start time.Time) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		pc.fail(c.newCallError(ErrorTypeTransport, "cannot build request", err, method, 0, start))
		return
	}
	req.Header = headers
	// Content-Length must reflect the actual (possibly compressed) body.
	req.ContentLength = int64(len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.debug.Enabled && c.debug.LogCalls && c.logger != nil {
			c.logger.Warn("Transport error", "method", method, "error", err.Error())
		}
		pc.fail(c.newCallError(ErrorTypeTransport, "transport request failed", err, method, 0, start))
		return
	}
	defer resp.Body.Close()

	// Cookie rotation runs on every completed transport response, before
	// the status check and before any callback.
	c.chain.parseResponse(resp.Header)
	if c.metrics != nil && len(resp.Header.Values("Set-Cookie")) > 0 {
		c.metrics.RecordCookieUpdate()
	}

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		pc.fail(c.newCallError(ErrorTypeNotFound, "endpoint not found", ErrNotFound, method, resp.StatusCode, start))
		return
	}

	stream := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			pc.fail(c.newCallError(ErrorTypeProtocol, "cannot decompress response body", err, method, resp.StatusCode, start))
			return
		}
		defer gz.Close()
		stream = gz
	}

	parsed := make(chan struct{})
	go func() {
		defer close(parsed)
		value, derr := c.newDeserializer(c.cfg.ResponseEncoding).DeserializeMethodResponse(stream)
		if derr != nil {
			pc.deserialized(nil, c.newCallError(ErrorTypeProtocol, "cannot deserialize method response", derr, method, resp.StatusCode, start))
			return
		}
		pc.deserialized(value, nil)
	}()

	pc.transportCompleted()

	// The response body is only valid until this function returns.
	<-parsed
}

// instrumentCallback wraps the user callback with metrics and debug logging
// for call completion.
func (c *Client) instrumentCallback(method string, callback Callback, start time.Time) Callback {
	return func(err error, value any) {
		duration := time.Since(start)
		if c.metrics != nil {
			c.metrics.RecordCallEnd(method)
			if cerr, ok := err.(*ClientError); ok {
				c.metrics.RecordError(cerr.Type, method)
				c.metrics.RecordCall(method, cerr.StatusCode, duration)
			} else if err != nil {
				c.metrics.RecordError(ErrorTypeTransport, method)
				c.metrics.RecordCall(method, 0, duration)
			} else {
				c.metrics.RecordCall(method, http.StatusOK, duration)
			}
		}
		if c.debug.Enabled && c.debug.LogCalls && c.logger != nil {
			if err != nil {
				c.logger.Debug("Method call failed", "method", method, "duration", duration, "error", err.Error())
			} else {
				c.logger.Debug("Method call completed", "method", method, "duration", duration)
			}
		}
		callback(err, value)
	}
}

func (c *Client) newCallError(errorType, message string, cause error, method string, statusCode int, start time.Time) *ClientError {
	return &ClientError{
		Type:       errorType,
		Message:    message,
		Cause:      cause,
		Method:     method,
		URL:        c.cfg.URL,
		StatusCode: statusCode,
		Timestamp:  time.Now(),
		Duration:   time.Since(start),
	}
}

func gzipCompress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
