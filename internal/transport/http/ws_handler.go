package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"careerquest-service/internal/app"
	"careerquest-service/internal/domain"
	"github.com/gorilla/websocket"
)

const updateBuffer = 32

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type welcomePayload struct {
	PlayerID    string       `json:"playerId"`
	LearnerKey  string       `json:"learnerKey"`
	DisplayName string       `json:"displayName"`
	Greeting    string       `json:"greeting"`
	Domains     []domainView `json:"domains"`
	State       app.Snapshot `json:"state"`
}

type attentionPayload struct {
	Index int `json:"index"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one player over the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	lang := languageParam(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates := make(chan outboundMessage[any], updateBuffer)
	query := r.URL.Query()
	player := h.service.NewPlayer(query.Get("name"), app.Hooks{
		OnChange: func(s app.Snapshot) {
			offer(updates, outboundMessage[any]{Type: "state", Payload: s})
		},
		OnAttentionReset: func(index int) {
			offer(updates, outboundMessage[any]{Type: "attention", Payload: attentionPayload{Index: index}})
		},
	}, app.WithLearnerKey(query.Get("player")))

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for {
			var msg outboundMessage[any]
			select {
			case m, ok := <-send:
				if !ok {
					return
				}
				msg = m
			case msg = <-updates:
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// Unblock the reader; the connection is unusable.
				conn.Close()
				return
			}
		}
	}()

	welcome := outboundMessage[any]{Type: "welcome", Payload: welcomePayload{
		PlayerID:    player.ID(),
		LearnerKey:  player.LearnerKey(),
		DisplayName: player.Name(),
		Greeting:    player.Greeting(),
		Domains:     domainViews(h.service.Domains(), lang),
		State:       player.Snapshot(),
	}}

	for connected := deliver(send, writerDone, welcome); connected; {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, player, inbound); err != nil {
			if !app.IsActionError(err) {
				log.Printf("ws player %s: %s failed: %v", player.ID(), inbound.Type, err)
			}
			connected = deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	// Release first so no hook fires once the writer is gone.
	h.service.Release(player.ID())
	close(send)
	<-writerDone
}

type protocolError string

func (e protocolError) Error() string { return string(e) }

func (h *WSHandler) dispatch(ctx context.Context, player *app.Player, inbound inboundMessage) error {
	switch inbound.Type {
	case "choose":
		var req app.ChooseRequest
		if err := json.Unmarshal(inbound.Payload, &req); err != nil {
			return protocolError("invalid choose payload")
		}
		return player.Choose(ctx, req)
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
			return protocolError("invalid select payload")
		}
		return player.Select(*payload.Option)
	case "submit":
		return player.Submit()
	case "advance":
		return player.Advance()
	case "exit":
		return player.Exit()
	case "continue":
		return player.Continue()
	default:
		return protocolError("unsupported message type")
	}
}

// deliver queues msg for the writer and reports false once the writer has stopped.
func deliver(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

// offer never blocks: when the buffer is full the oldest update is dropped.
func offer(ch chan outboundMessage[any], msg outboundMessage[any]) {
	select {
	case ch <- msg:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- msg:
		default:
		}
	}
}

func languageParam(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	return domain.DefaultLanguage
}
