package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// iso8601 is the XML-RPC flavor of ISO 8601: no dashes, no zone.
const iso8601 = "20060102T15:04:05"

// Serializer encodes methodCall bodies. The zero value is usable; NewSerializer
// exists for symmetry with NewDeserializer.
type Serializer struct{}

// NewSerializer creates a Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// SerializeMethodCall renders method and params as an XML-RPC methodCall
// document converted to the named charset ("" or utf-8 mean no conversion).
// Unsupported parameter types fail with an error.
func (s *Serializer) SerializeMethodCall(method string, params []any, encoding string) ([]byte, error) {
	var buf bytes.Buffer

	declCharset := encoding
	if isUTF8(declCharset) {
		declCharset = "utf-8"
	}
	fmt.Fprintf(&buf, "<?xml version=\"1.0\" encoding=\"%s\"?>", declCharset)

	buf.WriteString("<methodCall><methodName>")
	if err := escape(&buf, method); err != nil {
		return nil, err
	}
	buf.WriteString("</methodName><params>")
	for _, param := range params {
		buf.WriteString("<param>")
		if err := writeValue(&buf, param); err != nil {
			return nil, err
		}
		buf.WriteString("</param>")
	}
	buf.WriteString("</params></methodCall>")

	return encodeCharset(buf.Bytes(), encoding)
}

func writeValue(buf *bytes.Buffer, v any) error {
	buf.WriteString("<value>")
	if err := writeScalar(buf, v); err != nil {
		return err
	}
	buf.WriteString("</value>")
	return nil
}

func writeScalar(buf *bytes.Buffer, v any) error {
	if v == nil {
		buf.WriteString("<nil/>")
		return nil
	}

	switch t := v.(type) {
	case time.Time:
		buf.WriteString("<dateTime.iso8601>")
		buf.WriteString(t.Format(iso8601))
		buf.WriteString("</dateTime.iso8601>")
		return nil
	case []byte:
		buf.WriteString("<base64>")
		buf.WriteString(base64.StdEncoding.EncodeToString(t))
		buf.WriteString("</base64>")
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			buf.WriteString("<boolean>1</boolean>")
		} else {
			buf.WriteString("<boolean>0</boolean>")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString("<int>")
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
		buf.WriteString("</int>")
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteString("<int>")
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
		buf.WriteString("</int>")
	case reflect.Float32, reflect.Float64:
		buf.WriteString("<double>")
		buf.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
		buf.WriteString("</double>")
	case reflect.String:
		buf.WriteString("<string>")
		if err := escape(buf, rv.String()); err != nil {
			return err
		}
		buf.WriteString("</string>")
	case reflect.Slice, reflect.Array:
		buf.WriteString("<array><data>")
		for i := 0; i < rv.Len(); i++ {
			if err := writeValue(buf, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		buf.WriteString("</data></array>")
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return errors.Errorf("cannot serialize map with %s keys", rv.Type().Key())
		}
		// Sorted member order keeps output deterministic.
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		buf.WriteString("<struct>")
		for _, k := range keys {
			buf.WriteString("<member><name>")
			if err := escape(buf, k); err != nil {
				return err
			}
			buf.WriteString("</name>")
			if err := writeValue(buf, rv.MapIndex(reflect.ValueOf(k)).Interface()); err != nil {
				return err
			}
			buf.WriteString("</member>")
		}
		buf.WriteString("</struct>")
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("<nil/>")
			return nil
		}
		return writeScalar(buf, rv.Elem().Interface())
	default:
		return errors.Errorf("cannot serialize value of type %T", v)
	}
	return nil
}

func escape(buf *bytes.Buffer, s string) error {
	return xml.EscapeText(buf, []byte(s))
}
