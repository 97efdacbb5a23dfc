// Package protocol defines the websocket chat message envelopes.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/antoniostano/zoey/internal/flow"
	"github.com/antoniostano/zoey/internal/mode"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeUserMessage    MessageType = "user_message"
	TypeClientControl  MessageType = "client_control"
	TypeAssistantReply MessageType = "assistant_reply"
	TypeModeSwitched   MessageType = "mode_switched"
	TypeInsightEvent   MessageType = "insight_event"
	TypeSystemEvent    MessageType = "system_event"
	TypeErrorEvent     MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserMessage is one user chat turn sent over the websocket.
type UserMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Mode      mode.ID     `json:"mode"`
	Text      string      `json:"text"`
	TSMs      int64       `json:"ts_ms,omitempty"`
}

// ClientControl carries out-of-band client actions ("end").
type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
}

// AssistantReply is the scripted response for one turn. It is written
// after the script's pacing delay has elapsed.
type AssistantReply struct {
	Type      MessageType           `json:"type"`
	SessionID string                `json:"session_id"`
	TurnID    string                `json:"turn_id"`
	Mode      mode.ID               `json:"mode"`
	Reply     flow.ScriptedResponse `json:"reply"`
}

// ModeSwitched announces that the advisor redirected the turn.
type ModeSwitched struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	From       mode.ID     `json:"from"`
	To         mode.ID     `json:"to"`
	Confidence float64     `json:"confidence"`
	Intro      string      `json:"intro,omitempty"`
}

// InsightEvent carries insights generated during a turn.
type InsightEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Mode      mode.ID     `json:"mode"`
	Insights  []string    `json:"insights"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates an inbound client frame.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeUserMessage:
		var msg UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Mode == "" || msg.Text == "" {
			return nil, errors.New("invalid user_message")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
