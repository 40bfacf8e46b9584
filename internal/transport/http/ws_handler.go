package http

import (
	"encoding/json"
	"log"
	"net/http"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/coldstart"
	"adaptive-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.LearningService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.LearningService) *WSHandler {
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

type onboardPayload struct {
	Background domain.Background `json:"background"`
}

type answerPayload struct {
	Question            domain.Question `json:"question"`
	Answer              any             `json:"answer"`
	ResponseTimeSeconds float64         `json:"responseTimeSeconds"`
}

type completeQuizPayload struct {
	QuizID     string            `json:"quizId"`
	Topic      string            `json:"topic"`
	Score      float64           `json:"score"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

type recommendationsPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// adaptive-learning use cases. One connection serves one user; profile
// mutations from any device are pushed to every open connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe(userID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "profile", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Returning users get their profile immediately; new users get a prompt
	// to onboard first.
	if profile, err := h.service.Profile(r.Context(), userID); err == nil {
		send <- outboundMessage[any]{Type: "profile", Payload: profile}
	} else if app.IsProfileMissing(err) {
		send <- outboundMessage[any]{Type: "onboardRequired", Payload: errorPayload{Message: "no profile yet; send an onboard message"}}
	} else {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "onboard":
			var payload onboardPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid onboard payload"}}
				continue
			}
			profile, err := h.service.Onboard(r.Context(), userID, payload.Background)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "onboarded", Payload: profile}

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if !payload.Question.Type.Valid() {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: domain.ErrUnknownQuestionType.Error()}}
				continue
			}
			result, err := h.service.SubmitAnswer(r.Context(), userID, payload.Question, payload.Answer, payload.ResponseTimeSeconds)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: result}

		case "completeQuiz":
			var payload completeQuizPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid completeQuiz payload"}}
				continue
			}
			profile, err := h.service.CompleteQuiz(r.Context(), userID, coldstart.QuizResult{
				QuizID:     payload.QuizID,
				Topic:      payload.Topic,
				Score:      payload.Score,
				Difficulty: payload.Difficulty,
			})
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "quizRecorded", Payload: profile}

		case "recommendations":
			var payload recommendationsPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid recommendations payload"}}
				continue
			}
			limit := payload.Limit
			if limit <= 0 {
				limit = 5
			}
			docs, err := h.service.Recommendations(r.Context(), userID, limit)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "recommendations", Payload: docs}

		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
