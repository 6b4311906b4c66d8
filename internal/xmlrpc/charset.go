package xmlrpc

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "", "utf8", "utf-8":
		return true
	}
	return false
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown charset %q", name)
	}
	if enc == nil {
		return nil, errors.Errorf("charset %q has no registered encoding", name)
	}
	return enc, nil
}

// encodeCharset converts UTF-8 bytes into the named charset.
func encodeCharset(data []byte, name string) ([]byte, error) {
	if isUTF8(name) {
		return data, nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot encode body as %q", name)
	}
	return out, nil
}

// decodeCharsetReader wraps r so it yields UTF-8 regardless of the named
// source charset.
func decodeCharsetReader(r io.Reader, name string) (io.Reader, error) {
	if isUTF8(name) {
		return r, nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
