package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"retiro-api/internal/llm"
	"retiro-api/internal/utils"

	"github.com/rs/zerolog"
)

// chatFallback is what callers see on any upstream failure; the real error
// only reaches the log.
const chatFallback = "Lo siento, no puedo responder en este momento. Intentá de nuevo más tarde."

// Completer is the single LLM operation the chatbot needs.
type Completer interface {
	Complete(ctx context.Context, system, userMessage string) (string, error)
}

// ChatHTTP relays chat messages to the language model, selecting the system
// prompt by mode. The model's output is passed through verbatim.
type ChatHTTP struct {
	llm Completer
	log zerolog.Logger
}

func NewChatHTTP(c Completer, log zerolog.Logger) *ChatHTTP {
	return &ChatHTTP{llm: c, log: log}
}

// POST /chat
func (h *ChatHTTP) Relay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Message string `json:"message"`
			Mode    string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(in.Message) == "" {
			utils.Error(w, http.StatusBadRequest, "Falta el mensaje")
			return
		}

		reply, err := h.llm.Complete(r.Context(), llm.SystemPrompt(in.Mode), in.Message)
		if err != nil {
			h.log.Error().Err(err).Str("mode", in.Mode).Msg("chat upstream failed")
			utils.JSON(w, http.StatusInternalServerError, map[string]string{"response": chatFallback})
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"response": reply})
	}
}
