// Package json is the sonic codec shared by the document renderer and the
// panel client.
package json

import "github.com/bytedance/sonic"

// Keys come out sorted so inspect output is stable; numbers decode as int64.
var api = sonic.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseInt64:    true,
}.Froze()

// Marshal encodes v without HTML escaping.
func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

// UnmarshalString decodes a response body into v.
func UnmarshalString(data string, v any) error { return api.UnmarshalFromString(data, v) }
