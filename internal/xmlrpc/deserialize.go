package xmlrpc

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Deserializer decodes one methodResponse body per call. responseEncoding
// ("" means utf-8) names the charset the raw stream is decoded with before
// XML parsing.
type Deserializer struct {
	encoding string
}

// NewDeserializer creates a Deserializer for the given response charset.
func NewDeserializer(responseEncoding string) *Deserializer {
	return &Deserializer{encoding: responseEncoding}
}

// DeserializeMethodResponse reads a full methodResponse from r and returns
// its single result value, or an error. An explicit server fault is
// returned as a *Fault error; anything not shaped like a methodResponse is
// a parse error.
func (d *Deserializer) DeserializeMethodResponse(r io.Reader) (any, error) {
	if !isUTF8(d.encoding) {
		decoded, err := decodeCharsetReader(r, d.encoding)
		if err != nil {
			return nil, err
		}
		r = decoded
	}

	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if !isUTF8(d.encoding) {
			// Stream already converted above; the declaration still
			// names the source charset.
			return input, nil
		}
		return decodeCharsetReader(input, charset)
	}

	root, err := nextStart(dec)
	if err != nil {
		return nil, errors.Wrap(err, "malformed method response")
	}
	if root.Name.Local != "methodResponse" {
		return nil, errors.Errorf("unexpected root element %q", root.Name.Local)
	}

	section, err := nextStart(dec)
	if err != nil {
		return nil, errors.Wrap(err, "malformed method response")
	}

	switch section.Name.Local {
	case "params":
		return d.parseParams(dec)
	case "fault":
		return nil, d.parseFault(dec)
	}
	return nil, errors.Errorf("unexpected element %q in method response", section.Name.Local)
}

func (d *Deserializer) parseParams(dec *xml.Decoder) (any, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "malformed params")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "param" {
				return nil, errors.Errorf("unexpected element %q in params", t.Name.Local)
			}
			start, err := nextStart(dec)
			if err != nil {
				return nil, errors.Wrap(err, "malformed param")
			}
			if start.Name.Local != "value" {
				return nil, errors.Errorf("unexpected element %q in param", start.Name.Local)
			}
			return parseValue(dec)
		case xml.EndElement:
			if t.Name.Local == "params" {
				// A response with no param yields a nil value.
				return nil, nil
			}
		}
	}
}

func (d *Deserializer) parseFault(dec *xml.Decoder) error {
	start, err := nextStart(dec)
	if err != nil {
		return errors.Wrap(err, "malformed fault")
	}
	if start.Name.Local != "value" {
		return errors.Errorf("unexpected element %q in fault", start.Name.Local)
	}
	value, err := parseValue(dec)
	if err != nil {
		return err
	}
	members, ok := value.(map[string]any)
	if !ok {
		return errors.Errorf("fault value is %T, want struct", value)
	}
	fault := &Fault{}
	switch code := members["faultCode"].(type) {
	case int:
		fault.Code = code
	case int64:
		fault.Code = int(code)
	}
	if msg, ok := members["faultString"].(string); ok {
		fault.Message = msg
	}
	return fault
}

// parseValue consumes the content of an already-opened <value> element up
// to and including its end tag. A value with no typed child element is the
// default string form.
func parseValue(dec *xml.Decoder) (any, error) {
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "malformed value")
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			value, err := parseTyped(dec, t.Name.Local)
			if err != nil {
				return nil, err
			}
			if err := skipToEnd(dec, "value"); err != nil {
				return nil, err
			}
			return value, nil
		case xml.EndElement:
			if t.Name.Local == "value" {
				return text.String(), nil
			}
		}
	}
}

func parseTyped(dec *xml.Decoder, name string) (any, error) {
	switch name {
	case "string":
		return readText(dec, name)
	case "int", "i4":
		text, err := readText(dec, name)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, errors.Wrapf(err, "bad %s value", name)
		}
		return n, nil
	case "i8":
		text, err := readText(dec, name)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "bad i8 value")
		}
		return n, nil
	case "boolean":
		text, err := readText(dec, name)
		if err != nil {
			return nil, err
		}
		switch strings.TrimSpace(text) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
		return nil, errors.Errorf("bad boolean value %q", text)
	case "double":
		text, err := readText(dec, name)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, errors.Wrap(err, "bad double value")
		}
		return f, nil
	case "dateTime.iso8601":
		text, err := readText(dec, name)
		if err != nil {
			return nil, err
		}
		return parseDateTime(strings.TrimSpace(text))
	case "base64":
		text, err := readText(dec, name)
		if err != nil {
			return nil, err
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return nil, errors.Wrap(err, "bad base64 value")
		}
		return data, nil
	case "nil":
		return nil, skipToEnd(dec, name)
	case "array":
		return parseArray(dec)
	case "struct":
		return parseStruct(dec)
	}
	return nil, errors.Errorf("unknown value type %q", name)
}

func parseDateTime(text string) (time.Time, error) {
	for _, layout := range []string{iso8601, "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("bad dateTime.iso8601 value %q", text)
}

func parseArray(dec *xml.Decoder) (any, error) {
	values := []any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "malformed array")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "data":
				// Values live inside <data>; keep scanning.
			case "value":
				v, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			default:
				return nil, errors.Errorf("unexpected element %q in array", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "array" {
				return values, nil
			}
		}
	}
}

func parseStruct(dec *xml.Decoder) (any, error) {
	members := map[string]any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "malformed struct")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "member" {
				return nil, errors.Errorf("unexpected element %q in struct", t.Name.Local)
			}
			name, value, err := parseMember(dec)
			if err != nil {
				return nil, err
			}
			members[name] = value
		case xml.EndElement:
			if t.Name.Local == "struct" {
				return members, nil
			}
		}
	}
}

func parseMember(dec *xml.Decoder) (string, any, error) {
	var name string
	var value any
	seenValue := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", nil, errors.Wrap(err, "malformed member")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				name, err = readText(dec, "name")
				if err != nil {
					return "", nil, err
				}
			case "value":
				value, err = parseValue(dec)
				if err != nil {
					return "", nil, err
				}
				seenValue = true
			default:
				return "", nil, errors.Errorf("unexpected element %q in member", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "member" {
				if name == "" && !seenValue {
					return "", nil, errors.New("struct member missing name and value")
				}
				return name, value, nil
			}
		}
	}
}

// readText consumes the character data of an already-opened element up to
// and including its end tag.
func readText(dec *xml.Decoder, name string) (string, error) {
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", errors.Wrapf(err, "malformed %s", name)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if t.Name.Local == name {
				return text.String(), nil
			}
		case xml.StartElement:
			return "", errors.Errorf("unexpected element %q in %s", t.Name.Local, name)
		}
	}
}

// skipToEnd discards tokens until the end tag of name.
func skipToEnd(dec *xml.Decoder, name string) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrapf(err, "malformed %s", name)
		}
		if end, ok := tok.(xml.EndElement); ok && end.Name.Local == name {
			return nil
		}
	}
}

// nextStart skips tokens until the next start element.
func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}
