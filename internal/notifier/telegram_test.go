package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apetrenko/tgfactor/internal/testutil"
)

func TestTelegram_Send(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegram("bot-token", testutil.MakeNoopLogger(), WithBaseURL(srv.URL))

	err := n.Send(context.Background(), "chat-42", "Your OTP: 482913")
	require.NoError(t, err)
	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "chat-42", gotBody["chat_id"])
	assert.Equal(t, "Your OTP: 482913", gotBody["text"])
}

func TestTelegram_Send_APIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegram("bot-token", testutil.MakeNoopLogger(), WithBaseURL(srv.URL))

	err := n.Send(context.Background(), "chat-0", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegram_Send_MissingToken(t *testing.T) {
	n := NewTelegram("", testutil.MakeNoopLogger())

	err := n.Send(context.Background(), "chat-42", "hello")
	require.Error(t, err)
}
