package youtube

import "encoding/json"

// DumpJSON renders a value as indented JSON for operator-facing diagnostics.
// Marshal failures fall back to an empty object so a dump never masks the
// error being reported.
func DumpJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// AsMap re-encodes an API value as a generic map for path lookups with Walk.
// Diagnostic and export paths only; core control flow reads typed fields.
func AsMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// Walk descends nested maps by key. It returns nil as soon as a key is
// missing or a non-map value is reached before the last key.
func Walk(m map[string]interface{}, keys ...string) interface{} {
	var v interface{} = m
	for _, key := range keys {
		node, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v, ok = node[key]
		if !ok {
			return nil
		}
	}
	return v
}
