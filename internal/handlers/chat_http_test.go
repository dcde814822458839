package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, userMessage string) (string, error) {
	f.lastSystem = system
	f.lastUser = userMessage
	return f.reply, f.err
}

func postChat(t *testing.T, h *ChatHTTP, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Relay()(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out["response"]
}

func TestChatRelaysModelReplyVerbatim(t *testing.T) {
	fc := &fakeCompleter{reply: "La jubilación ordinaria requiere 30 años de aportes."}
	h := NewChatHTTP(fc, zerolog.Nop())

	rec := postChat(t, h, `{"message": "¿Qué es la jubilación ordinaria?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fc.reply, decodeResponse(t, rec))
	assert.Equal(t, "¿Qué es la jubilación ordinaria?", fc.lastUser)
	assert.NotEmpty(t, fc.lastSystem)
}

func TestChatModeSelectsSystemPrompt(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	h := NewChatHTTP(fc, zerolog.Nop())

	postChat(t, h, `{"message": "hola", "mode": "public"}`)
	public := fc.lastSystem
	postChat(t, h, `{"message": "hola", "mode": "private"}`)
	private := fc.lastSystem

	assert.NotEqual(t, public, private)

	// unknown modes fall back to the public prompt
	postChat(t, h, `{"message": "hola", "mode": "otro"}`)
	assert.Equal(t, public, fc.lastSystem)
}

func TestChatMissingMessage(t *testing.T) {
	h := NewChatHTTP(&fakeCompleter{}, zerolog.Nop())

	rec := postChat(t, h, `{"message": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Falta el mensaje")
}

func TestChatUpstreamFailureReturnsFallback(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("upstream timeout")}
	h := NewChatHTTP(fc, zerolog.Nop())

	rec := postChat(t, h, `{"message": "hola"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, chatFallback, decodeResponse(t, rec))
	assert.NotContains(t, rec.Body.String(), "upstream timeout")
}
