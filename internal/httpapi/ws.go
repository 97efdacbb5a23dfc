package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/zoey/internal/agent"
	"github.com/antoniostano/zoey/internal/memory"
	"github.com/antoniostano/zoey/internal/mode"
	"github.com/antoniostano/zoey/internal/protocol"
	"github.com/antoniostano/zoey/internal/session"
)

// handleSessionWS runs a chat session over a websocket. Inbound frames
// feed a single turn-handling goroutine so replies keep script order and
// scripted pacing delays; a single writer goroutine owns all writes.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 64)
	outbound := make(chan any, 64)

	turnsDone := make(chan struct{})
	go func() {
		defer close(turnsDone)
		s.runTurnLoop(ctx, cancel, sess.ID, sess.UserID, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok && s.metrics != nil {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Detail:    err.Error(),
			}
			select {
			case outbound <- errEvent:
			default:
				// Keep websocket writes single-threaded; drop if the
				// outbound queue is saturated.
			}
			continue
		}

		if t, ok := messageTypeOf(parsed); ok && s.metrics != nil {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-turnsDone
	<-writerDone
	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
	}
}

// runTurnLoop consumes client frames one at a time. Each user message
// runs the full turn pipeline; the scripted reply is written only after
// its pacing delay has elapsed, mirroring a typing assistant.
func (s *Server) runTurnLoop(ctx context.Context, cancel context.CancelFunc, sessionID, userID string, inbound <-chan any, outbound chan<- any) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			switch m := msg.(type) {
			case protocol.UserMessage:
				if m.SessionID != sessionID {
					s.send(ctx, outbound, protocol.ErrorEvent{
						Type:      protocol.TypeErrorEvent,
						SessionID: sessionID,
						Code:      "session_mismatch",
						Detail:    "message session_id does not match this connection",
					})
					continue
				}
				s.handleWSTurn(ctx, sessionID, userID, m, outbound)
			case protocol.ClientControl:
				if m.Action == "end" {
					if _, err := s.sessions.End(sessionID); err == nil && s.metrics != nil {
						s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
						s.metrics.SessionEvents.WithLabelValues("ended").Inc()
					}
					s.send(ctx, outbound, protocol.SystemEvent{
						Type:      protocol.TypeSystemEvent,
						SessionID: sessionID,
						Code:      "session_ended",
					})
					cancel()
					return
				}
			}
		}
	}
}

func (s *Server) handleWSTurn(ctx context.Context, sessionID, userID string, m protocol.UserMessage, outbound chan<- any) {
	result, err := s.orchestrator.HandleTurn(ctx, userID, m.Mode, m.Text)
	if err != nil {
		s.send(ctx, outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sessionID,
			Code:      errorCode(err),
			Detail:    err.Error(),
		})
		return
	}

	if result.ModeSwitched {
		s.send(ctx, outbound, protocol.ModeSwitched{
			Type:       protocol.TypeModeSwitched,
			SessionID:  sessionID,
			From:       m.Mode,
			To:         result.EffectiveMode,
			Confidence: result.Confidence,
			Intro:      result.Intro,
		})
	}

	if result.Reply.Delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(result.Reply.Delay):
		}
	}
	s.send(ctx, outbound, protocol.AssistantReply{
		Type:      protocol.TypeAssistantReply,
		SessionID: sessionID,
		TurnID:    result.TurnID,
		Mode:      result.EffectiveMode,
		Reply:     result.Reply,
	})

	if len(result.Insights) > 0 {
		s.send(ctx, outbound, protocol.InsightEvent{
			Type:      protocol.TypeInsightEvent,
			SessionID: sessionID,
			Mode:      result.EffectiveMode,
			Insights:  result.Insights,
		})
	}
}

func (s *Server) send(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case <-ctx.Done():
	case outbound <- msg:
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, agent.ErrValidation):
		return "invalid_request"
	case errors.Is(err, mode.ErrUnknown):
		return "unknown_mode"
	case errors.Is(err, memory.ErrNotFound):
		return "user_not_found"
	case errors.Is(err, session.ErrNotFound):
		return "session_not_found"
	default:
		return "turn_failed"
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.UserMessage:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.ModeSwitched:
		return m.Type, true
	case protocol.InsightEvent:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
