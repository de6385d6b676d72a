package core

import (
	"encoding/json"
	"reflect"
	"strings"
)

// assetFields has Asset's layout without its JSON methods.
type assetFields Asset

var assetKeys = func() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(assetFields{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}()

// IsAssetField reports whether key is one of Asset's typed JSON fields.
func IsAssetField(key string) bool { return assetKeys[key] }

func (a Asset) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(assetFields(a))
	if err != nil || len(a.Extra) == 0 {
		return b, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range a.Extra {
		if !assetKeys[k] {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var f assetFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for k := range m {
		if assetKeys[k] {
			delete(m, k)
		}
	}
	*a = Asset(f)
	a.Extra = nil
	if len(m) > 0 {
		a.Extra = m
	}
	return nil
}
