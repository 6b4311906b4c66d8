package kawatrpc

import (
	"net/http"
	"time"
)

// WithURL sets the endpoint from a URL string. It overrides host, port and
// path, and an http/https scheme overrides the secure flag. Malformed URLs
// are ignored and the remaining options/defaults apply instead.
func WithURL(rawURL string) Option {
	return func(c *Client) {
		c.optURL = rawURL
	}
}

// WithHost sets the server hostname (default localhost).
func WithHost(host string) Option {
	return func(c *Client) {
		c.optHost = host
	}
}

// WithPort sets the server port (default 443 when secure, else 80).
func WithPort(port int) Option {
	return func(c *Client) {
		c.optPort = port
	}
}

// WithPath sets the request path (default /). A missing leading slash is
// prepended.
func WithPath(path string) Option {
	return func(c *Client) {
		c.optPath = path
	}
}

// WithSecure selects https when true.
func WithSecure(secure bool) Option {
	return func(c *Client) {
		c.optSecure = secure
	}
}

// WithKeepAlive sets how long idle pooled connections are kept open.
// Zero (the default) disables connection reuse entirely.
func WithKeepAlive(d time.Duration) Option {
	return func(c *Client) {
		c.optKeepAlive = d
	}
}

// WithGzip sets the compression mode (default GzipNone).
func WithGzip(mode GzipMode) Option {
	return func(c *Client) {
		c.optGzip = mode
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.optUserAgent = ua
	}
}

// WithHeaders adds user-supplied headers. They win over defaults on any
// key collision, including Authorization.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		if c.optHeaders == nil {
			c.optHeaders = make(map[string]string, len(headers))
		}
		for name, value := range headers {
			c.optHeaders[name] = value
		}
	}
}

// WithBasicAuth sets credentials for a synthesized Authorization header.
// The header is only added when both fields are non-empty and no explicit
// Authorization header was supplied.
func WithBasicAuth(user, pass string) Option {
	return func(c *Client) {
		c.optBasicAuth = &BasicAuth{User: user, Pass: pass}
	}
}

// WithEncoding sets the request body charset passed to the Serializer.
func WithEncoding(encoding string) Option {
	return func(c *Client) {
		c.optEncoding = encoding
	}
}

// WithResponseEncoding sets the charset the Deserializer decodes response
// bodies with.
func WithResponseEncoding(encoding string) Option {
	return func(c *Client) {
		c.optResponseEncoding = encoding
	}
}

// WithCookies enables the cookie jar. The jar is registered first in the
// header processor chain so cookie rotation runs before any user processor.
func WithCookies() Option {
	return func(c *Client) {
		c.optCookies = true
	}
}

// WithHeaderProcessor appends processors to the header chain, after the
// cookie jar if one is enabled. Registration order is invocation order for
// both hooks.
func WithHeaderProcessor(processors ...HeaderProcessor) Option {
	return func(c *Client) {
		c.optProcessors = append(c.optProcessors, processors...)
	}
}

// WithHTTPClient sets a custom HTTP client, replacing the pooled transport
// the client would otherwise build from its keep-alive setting.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithSerializer replaces the default XML-RPC request serializer.
func WithSerializer(s Serializer) Option {
	return func(c *Client) {
		c.serializer = s
	}
}

// WithDeserializerFactory replaces the default XML-RPC response
// deserializer. The factory is invoked once per call.
func WithDeserializerFactory(f DeserializerFactory) Option {
	return func(c *Client) {
		c.newDeserializer = f
	}
}

// WithMetrics enables Prometheus metrics collection on the default
// registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets a custom logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithDebug enables debug logging with default configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}
