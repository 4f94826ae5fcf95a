package ir

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
)

// canonical is the value model used for fingerprints: strings, ints, lists
// and objects. Objects are written with sorted keys and strings are NFC
// normalised, so equal trees always produce equal bytes.
type canonical interface{}

type canonicalObject map[string]canonical

// marshalCanonical writes v as compact JSON with sorted object keys.
func marshalCanonical(buf *bytes.Buffer, v canonical) error {
	switch val := v.(type) {
	case string:
		return marshalCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []canonical:
		buf.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, e); err != nil {
				return errors.Wrapf(err, "[%d]", i)
			}
		}
		buf.WriteByte(']')
	case canonicalObject:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return errors.Wrapf(err, "%q", k)
			}
		}
		buf.WriteByte('}')
	default:
		return errors.AssertionFailedf("unsupported canonical value %T", v)
	}
	return nil
}

func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
