package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"persona-service/internal/app"
	"persona-service/internal/domain"
)

type WSHandler struct {
	service  *app.AssessmentService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService) *WSHandler {
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type presentedQuestion struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
}

type sessionPayload struct {
	SessionID string              `json:"sessionId"`
	Questions []presentedQuestion `json:"questions"`
	Responses []int               `json:"responses"`
}

type answerPayload struct {
	Position int `json:"position"`
	Value    int `json:"value"`
}

type resultPayload struct {
	RecordID string            `json:"recordId"`
	Type     string            `json:"type"`
	Scores   domain.PoleScores `json:"scores"`
}

type reportPayload struct {
	Email string `json:"email"`
}

// ServeWS runs one assessment session per connection. Connecting without a
// sessionId starts a fresh shuffled session; passing one resumes it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var (
		session   *app.Session
		presented []domain.PresentedQuestion
	)
	if sessionID := r.URL.Query().Get("sessionId"); sessionID != "" {
		session, presented, err = h.service.Resume(r.Context(), sessionID)
	} else {
		session, presented, err = h.service.Start(r.Context())
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Question text only; dimension and polarity stay server-side so clients
	// cannot game the instrument.
	questions := make([]presentedQuestion, len(presented))
	for i, q := range presented {
		questions[i] = presentedQuestion{Position: i, Text: q.Text}
	}
	send <- outboundMessage[any]{Type: "questions", Payload: sessionPayload{
		SessionID: session.ID,
		Questions: questions,
		Responses: session.Responses,
	}}

	recordID := ""
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if err := h.service.SubmitResponse(r.Context(), session.ID, payload.Position, payload.Value); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answered", Payload: payload}
		case "complete":
			result, record, err := h.service.Complete(r.Context(), session.ID)
			if err != nil {
				// Never substitute a default type for a failed scoring run.
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			recordID = record.ID
			send <- outboundMessage[any]{Type: "result", Payload: resultPayload{
				RecordID: record.ID,
				Type:     result.Type,
				Scores:   result.Scores,
			}}
		case "report":
			var payload reportPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Email == "" {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid report payload"}}
				continue
			}
			if recordID == "" {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "complete the assessment first"}}
				continue
			}
			if err := h.service.RequestReport(r.Context(), recordID, payload.Email); err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "assessment record not found"}}
				} else {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				}
				continue
			}
			send <- outboundMessage[any]{Type: "reportQueued", Payload: reportPayload{Email: payload.Email}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}
