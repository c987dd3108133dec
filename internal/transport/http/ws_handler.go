package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-runner/internal/app"
)

// WSHandler exposes the quiz runner to the rendering layer over a WebSocket.
// Each connection owns exactly one runner, so one UI flow owns one attempt.
type WSHandler struct {
	source    app.QuestionSource
	submitter app.ScoreSubmitter
	log       *zap.Logger
	upgrader  websocket.Upgrader
}

func NewWSHandler(source app.QuestionSource, submitter app.ScoreSubmitter, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		source:    source,
		submitter: submitter,
		log:       log,
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

type startPayload struct {
	CategoryID string `json:"categoryId"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives a quiz attempt from inbound
// commands: start, select, reveal, next, restart. Every state change and
// timer tick streams back as a "state" snapshot.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	runner := app.NewRunner(h.source, h.submitter, h.log)
	defer runner.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-runner.Updates():
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: view}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// A categoryId query parameter starts the attempt without a start message.
	if categoryID := r.URL.Query().Get("categoryId"); categoryID != "" {
		if err := runner.Start(r.Context(), categoryID); err != nil {
			sendUnlessClosed(send, writerDone, errMsg(err.Error()))
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.CategoryID == "" {
				sendUnlessClosed(send, writerDone, errMsg("invalid start payload"))
				continue
			}
			if err := runner.Start(r.Context(), payload.CategoryID); err != nil {
				sendUnlessClosed(send, writerDone, errMsg(err.Error()))
			}
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendUnlessClosed(send, writerDone, errMsg("invalid select payload"))
				continue
			}
			runner.Select(payload.Option)
		case "reveal":
			runner.Reveal()
		case "next":
			runner.Next(r.Context())
		case "restart":
			if err := runner.Restart(r.Context()); err != nil {
				sendUnlessClosed(send, writerDone, errMsg(err.Error()))
			}
		default:
			sendUnlessClosed(send, writerDone, errMsg("unsupported message type"))
		}
	}

	runner.Close()
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errMsg(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

// sendUnlessClosed queues msg for the writer, giving up once the writer has
// exited. Without the guard a dead connection would wedge the read loop as
// soon as the send buffer filled.
func sendUnlessClosed(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-writerDone:
	}
}
