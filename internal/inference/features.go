package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

var (
	ErrMissingSex        = errors.New("request body has no sex field")
	ErrUnknownSex        = errors.New("unrecognized sex value")
	ErrNonNumericFeature = errors.New("feature is not numeric")
)

// One-hot tokens are written exactly as the model was trained on them.
const (
	cold = "0."
	hot  = "1.0"
)

// Features is a predict request body split into the categorical sex field and
// the remaining numeric features, kept in the order they were received.
type Features struct {
	Sex    string
	Names  []string
	Values []string
}

// ParseFeatures reads a flat JSON object. Nested objects are flattened with
// dotted names. Numbers keep their original text; numeric strings are accepted.
func ParseFeatures(body []byte) (*Features, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("parse predict body: invalid JSON")
	}
	f := &Features{}
	sexSeen := false

	err := jsonparser.ObjectEach(body, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		if name == "sex" {
			sexSeen = true
			if dataType == jsonparser.String {
				s, err := jsonparser.ParseString(value)
				if err != nil {
					return err
				}
				f.Sex = s
			} else {
				// Keep non-string values so they are reported as unrecognized.
				f.Sex = string(value)
			}
			return nil
		}
		return f.add(name, value, dataType)
	})
	if err != nil {
		return nil, fmt.Errorf("parse predict body: %w", err)
	}
	if !sexSeen {
		return nil, ErrMissingSex
	}
	return f, nil
}

func (f *Features) add(name string, value []byte, dataType jsonparser.ValueType) error {
	switch dataType {
	case jsonparser.Number:
		return f.addNumber(name, string(value))
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return err
		}
		return f.addNumber(name, strings.TrimSpace(s))
	case jsonparser.Object:
		return jsonparser.ObjectEach(value, func(k []byte, v []byte, dt jsonparser.ValueType, _ int) error {
			child, err := jsonparser.ParseString(k)
			if err != nil {
				return err
			}
			return f.add(name+"."+child, v, dt)
		})
	default:
		return fmt.Errorf("%w: %s is %s", ErrNonNumericFeature, name, dataType)
	}
}

// addNumber keeps the text as received once it parses as a finite float.
func (f *Features) addNumber(name, s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%q", ErrNonNumericFeature, name, s)
	}
	f.Names = append(f.Names, name)
	f.Values = append(f.Values, s)
	return nil
}

// OneHot encodes the sex category. Matching is exact on the upper or lower
// case letter.
func OneHot(sex string) ([]string, bool) {
	switch sex {
	case "M", "m":
		return []string{cold, cold, hot}, true
	case "F", "f":
		return []string{hot, cold, cold}, true
	case "I", "i":
		return []string{cold, hot, cold}, true
	default:
		return nil, false
	}
}

// Payload renders the text/csv request body: numeric features followed by
// the one-hot sex encoding.
func (f *Features) Payload() (string, error) {
	enc, ok := OneHot(f.Sex)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSex, f.Sex)
	}
	cols := make([]string, 0, len(f.Values)+len(enc))
	cols = append(cols, f.Values...)
	cols = append(cols, enc...)
	return strings.Join(cols, ","), nil
}
