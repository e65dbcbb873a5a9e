package server

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Request is one GraphQL-over-HTTP request. Variables are carried along but
// never checked against the operation.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
	Extensions    map[string]any
}

// DecodeRequests reads a GraphQL-over-HTTP JSON body: a single request
// object or a non-empty batch array of them. batch reports which form the
// body had.
func DecodeRequests(body []byte) (reqs []Request, batch bool, err error) {
	if !gjson.ValidBytes(body) {
		return nil, false, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(body)
	switch {
	case root.IsArray():
		entries := root.Array()
		if len(entries) == 0 {
			return nil, true, fmt.Errorf("empty batch")
		}
		reqs = make([]Request, len(entries))
		for i, e := range entries {
			if reqs[i], err = decodeRequest(e); err != nil {
				return nil, true, fmt.Errorf("batch entry %d: %w", i, err)
			}
		}
		return reqs, true, nil
	case root.IsObject():
		req, err := decodeRequest(root)
		if err != nil {
			return nil, false, err
		}
		return []Request{req}, false, nil
	default:
		return nil, false, fmt.Errorf("request must be a JSON object or array")
	}
}

func decodeRequest(v gjson.Result) (Request, error) {
	if !v.IsObject() {
		return Request{}, fmt.Errorf("request must be a JSON object")
	}
	query := v.Get("query")
	if query.Type != gjson.String || query.Str == "" {
		return Request{}, fmt.Errorf("missing 'query'")
	}
	req := Request{
		Query:         query.Str,
		OperationName: v.Get("operationName").String(),
	}
	var err error
	if req.Variables, err = objectField(v, "variables"); err != nil {
		return Request{}, err
	}
	if req.Extensions, err = objectField(v, "extensions"); err != nil {
		return Request{}, err
	}
	return req, nil
}

// objectField returns the object under key, nil when it is absent or null.
func objectField(v gjson.Result, key string) (map[string]any, error) {
	f := v.Get(key)
	switch {
	case !f.Exists() || f.Type == gjson.Null:
		return nil, nil
	case f.IsObject():
		m, _ := f.Value().(map[string]any)
		return m, nil
	default:
		return nil, fmt.Errorf("'%s' must be an object", key)
	}
}

// decodeVariables parses the JSON-encoded variables of a GET request.
func decodeVariables(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("invalid 'variables' JSON")
	}
	f := gjson.Parse(raw)
	if f.Type == gjson.Null {
		return nil, nil
	}
	if !f.IsObject() {
		return nil, fmt.Errorf("'variables' must be an object")
	}
	m, _ := f.Value().(map[string]any)
	return m, nil
}
