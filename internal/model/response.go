package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Envelope is the top-level object returned by the backend chat endpoint.
// Result is kept raw; its shape is decided by the normalizer.
type Envelope struct {
	Success    bool            `json:"success"`
	Result     json.RawMessage `json:"result,omitempty"`
	Response   *string         `json:"response,omitempty"`
	Intent     *string         `json:"intent,omitempty"`
	Confidence *float64        `json:"confidence,omitempty"`
}

// UnmarshalJSON decodes field by field so a mistyped metadata field does not
// discard the rest of the envelope. Only a body that is not a JSON object
// fails.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Envelope{}
	_ = json.Unmarshal(raw["success"], &e.Success)
	if v, ok := raw["result"]; ok {
		e.Result = v
	}

	var s string
	if isSet(raw["response"]) && json.Unmarshal(raw["response"], &s) == nil {
		e.Response = &s
	}
	var intent string
	if isSet(raw["intent"]) && json.Unmarshal(raw["intent"], &intent) == nil && intent != "" {
		e.Intent = &intent
	}
	var confidence float64
	if isSet(raw["confidence"]) && json.Unmarshal(raw["confidence"], &confidence) == nil {
		e.Confidence = &confidence
	}
	return nil
}

func isSet(v json.RawMessage) bool {
	return len(v) > 0 && string(v) != "null"
}

// HasResult reports whether the envelope carries a truthy result.
func (e *Envelope) HasResult() bool {
	return e != nil && Truthy(e.Result)
}

// Truthy reports whether a raw JSON value counts as set: anything except a
// missing value, null, false, 0 and "". Empty arrays and objects are set.
func Truthy(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	if !isSet(v) {
		return false
	}
	switch string(v) {
	case "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil {
		return f != 0
	}
	return true
}

// Turn is one entry of the conversation log. Turns are never modified once appended.
type Turn struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Intent     string    `json:"intent,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type SessionState struct {
	Busy      bool `json:"busy"`
	TurnCount int  `json:"turn_count"`
}

type SubmitResponse struct {
	Accepted bool `json:"accepted"`
	Busy     bool `json:"busy"`
}

// Event is one entry of a session feed: either an appended turn or the
// session state after it changed.
type Event struct {
	Turn  *Turn         `json:"turn,omitempty"`
	State *SessionState `json:"state,omitempty"`
}
