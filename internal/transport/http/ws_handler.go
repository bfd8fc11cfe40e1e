package http

import (
	"encoding/json"
	"log"
	"net/http"

	"trivia-builder-service/internal/app"
	"github.com/gorilla/websocket"
)

// BuilderHandler streams a builder session over a websocket. Every device on
// the same session sees each new state.
type BuilderHandler struct {
	service  *app.BuilderService
	upgrader websocket.Upgrader
}

func NewBuilderHandler(service *app.BuilderService) *BuilderHandler {
	return &BuilderHandler{
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS joins the caller to a session: the one named by sessionId, a session
// on the set named by setId, or a new set when neither is given.
func (h *BuilderHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := r.URL.Query().Get("sessionId")
	setID := r.URL.Query().Get("setId")

	var (
		joined app.Snapshot
		err    error
	)
	switch {
	case sessionID != "":
		joined.SessionID = sessionID
	case setID != "":
		joined, err = h.service.Open(ctx, setID)
	default:
		joined, err = h.service.Start(ctx)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sessionID = joined.SessionID

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer h.service.Close(ctx, sessionID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The first update is the current state, which doubles as the join payload.
	initial := <-updates
	joined.State = initial
	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "intent":
			in, err := decodeIntent(inbound.Payload)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			_, result, err := h.service.Dispatch(ctx, sessionID, in)
			if result != nil {
				send <- outboundMessage[any]{Type: "completed", Payload: result}
				continue
			}
			if err != nil {
				send <- errorMessage(err)
			}
		case "save":
			result, err := h.service.Save(ctx, sessionID)
			if result.Status == "" {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "saved", Payload: result}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
