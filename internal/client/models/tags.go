package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is an ordered list of trimmed, non-empty labels.
//
// The server has stored tags both as a JSON array and as a comma
// separated string, so decoding accepts either form (and null).
type Tags []string

func (t *Tags) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = NormalizeTags(raw)
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// String renders the tags the way they are typed in: "a, b, c".
func (t Tags) String() string {
	return strings.Join(t, ", ")
}

// NormalizeTags turns an array, a comma separated string or nothing into
// canonical Tags. The result is never nil.
func NormalizeTags(raw any) Tags {
	out := Tags{}

	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	switch v := raw.(type) {
	case nil:
	case string:
		for _, part := range strings.Split(v, ",") {
			add(part)
		}
	case Tags:
		for _, s := range v {
			add(s)
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	case []any:
		for _, item := range v {
			switch s := item.(type) {
			case nil:
			case string:
				add(s)
			default:
				add(fmt.Sprint(s))
			}
		}
	}

	return out
}
