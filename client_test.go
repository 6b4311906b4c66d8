package kawatrpc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/goleak"
)

const stringResponse = `<?xml version="1.0"?><methodResponse><params><param>` +
	`<value><string>world</string></value></param></params></methodResponse>`

const faultResponse = `<?xml version="1.0"?><methodResponse><fault><value><struct>` +
	`<member><name>faultCode</name><value><int>4</int></value></member>` +
	`<member><name>faultString</name><value><string>Too many parameters.</string></value></member>` +
	`</struct></value></fault></methodResponse>`

func newTestClient(serverURL string, extra ...Option) *Client {
	return New(append([]Option{WithURL(serverURL)}, extra...)...)
}

func TestMethodCallSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "text/xml" {
			t.Errorf("Expected Content-Type text/xml, got %s", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "<methodName>hello</methodName>") {
			t.Errorf("Request body missing method name: %s", body)
		}
		if _, err := io.WriteString(w, stringResponse); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	value, err := client.Call(context.Background(), "hello", "world")

	if err != nil {
		t.Fatalf("Call() returned error: %v", err)
	}
	if value != "world" {
		t.Errorf("Expected world, got %v", value)
	}
}

func TestMethodCallCallbackExactlyOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, stringResponse)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	fired := make(chan struct{}, 4)
	client.MethodCall(context.Background(), "hello", nil, func(err error, value any) {
		fired <- struct{}{}
	})

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("Callback never fired")
	}
	select {
	case <-fired:
		t.Fatal("Callback fired more than once")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotFoundTakesPrecedenceOverValidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		// A body the deserializer could parse; it must be discarded.
		_, _ = io.WriteString(w, stringResponse)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	value, err := client.Call(context.Background(), "hello")

	if value != nil {
		t.Errorf("Expected nil value, got %v", value)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	var cerr *ClientError
	if !errors.As(err, &cerr) || cerr.Type != ErrorTypeNotFound || cerr.StatusCode != 404 {
		t.Errorf("Expected NotFound ClientError with status 404, got %+v", cerr)
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := newTestClient(server.URL)
	_, err := client.Call(context.Background(), "hello")

	var cerr *ClientError
	if !errors.As(err, &cerr) || cerr.Type != ErrorTypeTransport {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if cerr.Unwrap() == nil {
		t.Error("Transport error must preserve the underlying cause")
	}
}

func TestFaultResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, faultResponse)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Call(context.Background(), "hello")

	var cerr *ClientError
	if !errors.As(err, &cerr) || cerr.Type != ErrorTypeProtocol {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
	code, msg, ok := IsFault(err)
	if !ok {
		t.Fatal("Expected an explicit fault")
	}
	if code != 4 || msg != "Too many parameters." {
		t.Errorf("Expected fault 4 / Too many parameters., got %d / %s", code, msg)
	}
}

func TestMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "this is not xml")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Call(context.Background(), "hello")

	var cerr *ClientError
	if !errors.As(err, &cerr) || cerr.Type != ErrorTypeProtocol {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
}

func TestEncodingErrorPropagatesThroughCallback(t *testing.T) {
	client := New() // no server needed; serialization fails first
	var got error
	client.MethodCall(context.Background(), "bad", []any{make(chan int)}, func(err error, value any) {
		got = err
	})

	// Serializer failures finalize synchronously, before any dispatch.
	var cerr *ClientError
	if !errors.As(got, &cerr) || cerr.Type != ErrorTypeEncoding {
		t.Fatalf("Expected EncodingError, got %v", got)
	}
}

func TestGzipBothDeclaresCompressedLength(t *testing.T) {
	var declaredLength int64
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			t.Errorf("Expected Content-Encoding gzip, got %q", r.Header.Get("Content-Encoding"))
		}
		declaredLength = r.ContentLength
		receivedBody, _ = io.ReadAll(r.Body)

		gz, err := gzip.NewReader(bytes.NewReader(receivedBody))
		if err != nil {
			t.Errorf("Request body is not gzip: %v", err)
			return
		}
		raw, _ := io.ReadAll(gz)
		if !strings.Contains(string(raw), "<methodName>hello</methodName>") {
			t.Errorf("Decompressed body missing method call: %s", raw)
		}
		if int64(len(raw)) == declaredLength {
			t.Error("Content-Length matches the raw body, expected the compressed length")
		}
		_, _ = io.WriteString(w, stringResponse)
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithGzip(GzipBoth))
	value, err := client.Call(context.Background(), "hello", strings.Repeat("x", 2048))

	if err != nil {
		t.Fatalf("Call() returned error: %v", err)
	}
	if value != "world" {
		t.Errorf("Expected world, got %v", value)
	}
	if declaredLength != int64(len(receivedBody)) {
		t.Errorf("Declared length %d, actual compressed body %d", declaredLength, len(receivedBody))
	}
}

func TestGzipResponseTransparentlyDecompressed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "gzip" {
			t.Errorf("Expected Accept-Encoding gzip, got %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, stringResponse)
		_ = gz.Close()
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithGzip(GzipResponse))
	value, err := client.Call(context.Background(), "hello")

	if err != nil {
		t.Fatalf("Call() returned error: %v", err)
	}
	if value != "world" {
		t.Errorf("Expected world, got %v", value)
	}
}

func TestCookieRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Cookie"); got != "a=1" {
			t.Errorf("Expected Cookie a=1, got %q", got)
		}
		w.Header().Add("Set-Cookie", "a=2")
		_, _ = io.WriteString(w, stringResponse)
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithCookies())
	if err := client.SetCookie("a", "1"); err != nil {
		t.Fatalf("SetCookie returned error: %v", err)
	}

	if _, err := client.Call(context.Background(), "hello"); err != nil {
		t.Fatalf("Call() returned error: %v", err)
	}

	// Server value overwrites the local one before the callback fires.
	value, err := client.GetCookie("a")
	if err != nil {
		t.Fatalf("GetCookie returned error: %v", err)
	}
	if value != "2" {
		t.Errorf("Expected server value 2, got %q", value)
	}
}

func TestCookieRotationRunsOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "a=404")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithCookies())
	_, err := client.Call(context.Background(), "hello")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	value, _ := client.GetCookie("a")
	if value != "404" {
		t.Errorf("Cookie rotation must run on every completed response, got %q", value)
	}
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, stringResponse)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := client.Call(context.Background(), "hello")
			done <- err
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Errorf("Concurrent call failed: %v", err)
		}
	}
}

func TestMethodCallNilCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, stringResponse)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.MethodCall(context.Background(), "hello", nil, nil)
	// Completion is only observable via a second, synchronous call.
	if _, err := client.Call(context.Background(), "hello"); err != nil {
		t.Fatalf("Call() returned error: %v", err)
	}
}

func TestMethodCallDoesNotLeakGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, stringResponse)
	}))

	client := newTestClient(server.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.Call(context.Background(), "hello"); err != nil {
			t.Fatalf("Call() returned error: %v", err)
		}
	}
	server.Close()
}
