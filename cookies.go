package kawatrpc

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// CookieJar stores per-name cookie values for a client and participates in
// the header processor chain: outgoing requests carry the jar serialized
// into a Cookie header, and Set-Cookie response headers overwrite matching
// names. Handlers for concurrent in-flight calls may touch the jar at the
// same time, so all access is mutex-guarded; last write wins per name.
type CookieJar struct {
	mu      sync.Mutex
	cookies map[string]string
}

// NewCookieJar creates an empty jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{cookies: make(map[string]string)}
}

// Get returns the current value for name and whether it is present.
func (j *CookieJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.cookies[name]
	return v, ok
}

// Set stores or overwrites the outgoing value for name.
func (j *CookieJar) Set(name, value string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[name] = value
}

// ComposeRequest serializes the full jar into a Cookie header as
// semicolon-joined name=value pairs. Names are emitted in sorted order so
// repeated calls produce an identical header. An empty jar adds nothing.
func (j *CookieJar) ComposeRequest(headers http.Header) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.cookies) == 0 {
		return
	}
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+j.cookies[name])
	}
	headers.Set("Cookie", strings.Join(pairs, ";"))
}

// ParseResponse consumes every Set-Cookie value from the incoming headers
// and overwrites matching names. Attributes after the first semicolon
// (Path, Expires, ...) are ignored; names not present in the response are
// left untouched.
func (j *CookieJar) ParseResponse(headers http.Header) {
	setCookies := headers.Values("Set-Cookie")
	if len(setCookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, sc := range setCookies {
		pair := sc
		if i := strings.IndexByte(pair, ';'); i >= 0 {
			pair = pair[:i]
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		j.cookies[name] = strings.TrimSpace(value)
	}
}
