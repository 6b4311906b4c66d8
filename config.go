package kawatrpc

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ClientConfig is the fully resolved, immutable configuration a Client
// operates on. It is built once during New and never mutated afterwards;
// per-call header work happens on cloned copies.
type ClientConfig struct {
	Host             string
	Port             int
	Path             string
	URL              string
	Secure           bool
	KeepAlive        time.Duration // 0 disables connection reuse
	Gzip             GzipMode
	UserAgent        string
	Headers          http.Header
	BasicAuth        *BasicAuth
	Encoding         string
	ResponseEncoding string
}

const defaultUserAgent = "kawatrpc XML-RPC client"

// normalizeConfig resolves the option-supplied fields into a ClientConfig.
// Resolution never fails: a URL (if given) overrides host/port/path and, via
// its scheme, the secure flag; every remaining gap is filled by a default.
func (c *Client) normalizeConfig() ClientConfig {
	host, port, path, secure := c.optHost, c.optPort, c.optPath, c.optSecure

	if c.optURL != "" {
		if u, err := url.Parse(c.optURL); err == nil {
			switch u.Scheme {
			case "https":
				secure = true
			case "http":
				secure = false
			}
			if h := u.Hostname(); h != "" {
				host = h
			}
			if p := u.Port(); p != "" {
				if n, err := strconv.Atoi(p); err == nil {
					port = n
				}
			} else {
				port = 0
			}
			path = u.Path
		}
	}

	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		if secure {
			port = 443
		} else {
			port = 80
		}
	}
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	scheme := "http"
	if secure {
		scheme = "https"
	}

	userAgent := c.optUserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	cfg := ClientConfig{
		Host:             host,
		Port:             port,
		Path:             path,
		URL:              fmt.Sprintf("%s://%s:%d%s", scheme, host, port, path),
		Secure:           secure,
		KeepAlive:        c.optKeepAlive,
		Gzip:             c.optGzip,
		UserAgent:        userAgent,
		BasicAuth:        c.optBasicAuth,
		Encoding:         c.optEncoding,
		ResponseEncoding: c.optResponseEncoding,
	}
	cfg.Headers = c.assembleHeaders(cfg)
	return cfg
}

// assembleHeaders builds the default header set, layers user-supplied
// headers on top (user wins on any collision) and synthesizes basic auth
// when credentials are present and the caller did not set Authorization.
func (c *Client) assembleHeaders(cfg ClientConfig) http.Header {
	h := http.Header{}
	h.Set("User-Agent", cfg.UserAgent)
	h.Set("Content-Type", "text/xml")
	h.Set("Accept", "text/xml")
	h.Set("Accept-Charset", "UTF8")
	h.Set("Connection", "Keep-Alive")

	if cfg.Gzip != GzipNone {
		h.Set("Accept-Encoding", "gzip")
	}
	if cfg.Gzip == GzipBoth {
		h.Set("Content-Encoding", "gzip")
	}

	for name, value := range c.optHeaders {
		h.Set(name, value)
	}

	if cfg.BasicAuth != nil && cfg.BasicAuth.User != "" && cfg.BasicAuth.Pass != "" && h.Get("Authorization") == "" {
		cred := base64.StdEncoding.EncodeToString([]byte(cfg.BasicAuth.User + ":" + cfg.BasicAuth.Pass))
		h.Set("Authorization", "Basic "+cred)
	}

	return h
}
