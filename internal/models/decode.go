// internal/models/decode.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
)

var ErrNoList = errors.New("response holds no list")

// Rank accepts 1 or "1". Anything that is not a number decodes to 0.
type Rank int

func (r *Rank) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*r = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		n, err := strconv.Atoi(s)
		if err != nil {
			*r = 0
			return nil
		}
		*r = Rank(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*r = 0
		return nil
	}
	*r = Rank(int(f))
	return nil
}

// DecodeList decodes a JSON array, or an array held by a field of a JSON
// object. keys are tried first, then every array-valued field in name
// order. raw is the generic decoding of the chosen array.
func DecodeList[T any](data []byte, keys ...string) ([]T, interface{}, error) {
	data = bytes.TrimSpace(data)
	var listRaw json.RawMessage

	switch {
	case len(data) > 0 && data[0] == '[':
		listRaw = data
	case len(data) > 0 && data[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, nil, err
		}
		for _, k := range keys {
			if v, ok := obj[k]; ok && isArray(v) {
				listRaw = v
				break
			}
		}
		if listRaw == nil {
			names := make([]string, 0, len(obj))
			for k := range obj {
				names = append(names, k)
			}
			sort.Strings(names)
			for _, k := range names {
				if isArray(obj[k]) {
					listRaw = obj[k]
					break
				}
			}
		}
		if listRaw == nil {
			return nil, nil, ErrNoList
		}
	default:
		return nil, nil, ErrNoList
	}

	var out []T
	if err := json.Unmarshal(listRaw, &out); err != nil {
		return nil, nil, err
	}
	var raw interface{}
	_ = json.Unmarshal(listRaw, &raw)
	if out == nil {
		out = []T{}
	}
	return out, raw, nil
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

// PreviewFromMap builds a preview from a decoded JSON object, turning
// scalars of the wrong type into strings. Type mismatches are left for
// schema validation to report.
func PreviewFromMap(m map[string]interface{}) DriverPreview {
	p := DriverPreview{
		TLDR:         stringValue(m["tldr"]),
		Full:         stringValue(m["full"]),
		PerfectQuali: stringValue(m["perfect_quali"]),
		PerfectRace:  stringValue(m["perfect_race"]),
		GoodQuali:    stringValue(m["good_quali"]),
		GoodRace:     stringValue(m["good_race"]),
		StakesLevel:  StakesLevel(strings.ToLower(stringValue(m["stakes_level"]))),
		WatchFor:     stringValue(m["watch_for"]),
	}

	switch v := m["key_strengths"].(type) {
	case []interface{}:
		for _, item := range v {
			if s := stringValue(item); s != "" {
				p.KeyStrengths = append(p.KeyStrengths, s)
			}
		}
	case nil:
	default:
		if s := stringValue(v); s != "" {
			p.KeyStrengths = []string{s}
		}
	}
	return p
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
