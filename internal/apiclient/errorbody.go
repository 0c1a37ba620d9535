package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/target/ctf-console/internal/util"
)

// errorBody extracts the server-supplied message and field errors from a
// non-2xx response body.
type errorBody struct {
	message util.Path
	fields  util.Path
}

func newErrorBody(messageExpr, fieldsExpr string) (errorBody, error) {
	msg, err := util.CompilePath(messageExpr)
	if err != nil {
		return errorBody{}, fmt.Errorf("message path: %w", err)
	}
	fields, err := util.CompilePath(fieldsExpr)
	if err != nil {
		return errorBody{}, fmt.Errorf("fields path: %w", err)
	}
	return errorBody{message: msg, fields: fields}, nil
}

// parse returns the message (falling back to the status text or a raw text
// body) and any field-level errors.
func (e errorBody) parse(status int, body []byte) (string, map[string]string) {
	fallback := http.StatusText(status)
	if fallback == "" {
		fallback = fmt.Sprintf("HTTP %d", status)
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fallback, nil
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		if len(trimmed) > 200 {
			trimmed = trimmed[:200]
		}
		return trimmed, nil
	}

	msg := e.message.String(doc)
	if msg == "" {
		msg = fallback
	}

	raw, err := e.fields.Search(doc)
	if err != nil {
		return msg, nil
	}
	return msg, flattenFields(raw)
}

// flattenFields accepts {"field": "msg"}, {"field": ["msg", ...]} and
// [{"field": "f", "message": "msg"}] shapes.
func flattenFields(raw any) map[string]string {
	out := map[string]string{}
	switch v := raw.(type) {
	case map[string]any:
		for field, val := range v {
			if msg := firstMessage(val); msg != "" {
				out[field] = msg
			}
		}
	case []any:
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			field := firstString(obj, "field", "path", "name", "param")
			msg := firstString(obj, "message", "msg", "error")
			if field != "" && msg != "" {
				out[field] = msg
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstMessage(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		msgs := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				msgs = append(msgs, strings.TrimSpace(s))
			}
		}
		return strings.Join(msgs, "; ")
	case map[string]any:
		return firstString(t, "message", "msg")
	}
	return ""
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// sortedFieldNames is used for stable log output.
func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
