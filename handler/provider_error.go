package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// providerMessage turns a provider error reply into the message relayed to
// the client. readErr is the error from reading the reply body, if any.
func providerMessage(status int, body []byte, readErr error) string {
	if readErr != nil || !isJSONObject(body) {
		return fmt.Sprintf("%s: HTTP %d", msgProviderError, status)
	}
	for _, key := range []string{"detail", "message"} {
		if msg, ok := fieldMessage(body, key); ok {
			return msg
		}
	}
	return msgProviderError
}

func isJSONObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// fieldMessage renders body[key] as text. Empty values (null, "", 0, false,
// [] and {}) report false so the next key gets a chance. With duplicate keys
// jsonparser yields the first occurrence, where encoding/json keeps the last.
func fieldMessage(body []byte, key string) (string, bool) {
	value, dataType, _, err := jsonparser.Get(body, key)
	if err != nil {
		return "", false
	}

	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil || s == "" {
			return "", false
		}
		return s, true
	case jsonparser.Number:
		n, err := jsonparser.ParseFloat(value)
		if err != nil || n == 0 {
			return "", false
		}
		return string(value), true
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil || !b {
			return "", false
		}
		return strconv.FormatBool(b), true
	case jsonparser.Array:
		if msgs, ok := validationMessages(value); ok {
			return strings.Join(msgs, "; "), true
		}
		return compact(value)
	case jsonparser.Object:
		return compact(value)
	}
	return "", false
}

// validationMessages collects the "msg" of every item of a validation error
// list such as [{"loc": [...], "msg": "...", "type": "..."}].
func validationMessages(list []byte) ([]string, bool) {
	var msgs []string
	complete := true
	_, err := jsonparser.ArrayEach(list, func(item []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType != jsonparser.Object {
			complete = false
			return
		}
		msg, err := jsonparser.GetString(item, "msg")
		if err != nil || msg == "" {
			complete = false
			return
		}
		msgs = append(msgs, msg)
	})
	if err != nil || !complete || len(msgs) == 0 {
		return nil, false
	}
	return msgs, true
}

func compact(value []byte) (string, bool) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return "", false
	}
	s := buf.String()
	if s == "[]" || s == "{}" {
		return "", false
	}
	return s, true
}
