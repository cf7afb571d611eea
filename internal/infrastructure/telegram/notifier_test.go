package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier(server.URL+"/", "123:abc", "42")
	require.NoError(t, n.PublishDigest(context.Background(), "run done"))

	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Equal(t, "run done", gotText)
}

func TestPublishDigestTruncatesLongMessages(t *testing.T) {
	t.Parallel()

	var gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier(server.URL, "t", "c")
	require.NoError(t, n.PublishDigest(context.Background(), strings.Repeat("x", 5000)))
	assert.Len(t, gotText, maxMessageLength)
	assert.True(t, strings.HasSuffix(gotText, "..."))
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewNotifier(server.URL, "t", "c").PublishDigest(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")

	assert.Error(t, NewNotifier("", "", "c").PublishDigest(context.Background(), "x"))
	assert.Error(t, NewNotifier("", "t", "").PublishDigest(context.Background(), "x"))
	assert.NoError(t, Noop{}.PublishDigest(context.Background(), "x"))
}

func TestPublishDigestRejectedWithOK(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: message text is empty"}`))
	}))
	defer server.Close()

	err := NewNotifier(server.URL, "t", "c").PublishDigest(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message text is empty")
}

func TestTruncateCountsCharacters(t *testing.T) {
	t.Parallel()

	short := strings.Repeat("ä", maxMessageLength)
	assert.Equal(t, short, truncate(short))

	long := truncate(strings.Repeat("ä", maxMessageLength+1))
	assert.Equal(t, maxMessageLength, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}
