package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// replyEnvelope - известные поля ответа вебхука.
// Порядок приоритета задается в fields().
type replyEnvelope struct {
	Output   json.RawMessage `json:"output"`
	Message  json.RawMessage `json:"message"`
	Text     json.RawMessage `json:"text"`
	Response json.RawMessage `json:"response"`
}

func (e *replyEnvelope) fields() []json.RawMessage {
	return []json.RawMessage{e.Output, e.Message, e.Text, e.Response}
}

var ErrInvalidReply = errors.New("invalid webhook reply")

// DecodeReply достает текст ответа.
// Берется первое непустое строковое поле из output, message, text, response.
// Массив (так отвечает n8n) - используется первый элемент.
// Пустое тело или отсутствие полей дает DefaultReply.
func DecodeReply(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return DefaultReply, nil
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return "", ErrInvalidReply
		}
		if len(items) == 0 {
			return DefaultReply, nil
		}
		raw = bytes.TrimSpace(items[0])
	}

	if len(raw) == 0 || raw[0] != '{' {
		// голая строка тоже допустима
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return s, nil
		}
		if json.Valid(raw) {
			return DefaultReply, nil
		}
		return "", ErrInvalidReply
	}

	var env replyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", ErrInvalidReply
	}

	for _, field := range env.fields() {
		if len(field) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(field, &s); err != nil {
			continue
		}
		if strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
	return DefaultReply, nil
}
