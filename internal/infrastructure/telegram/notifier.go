package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NordicDataFlow/internal/ports"
)

// DefaultAPIBase is the public Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// maxMessageLength is the Bot API limit for one text message, in characters.
const maxMessageLength = 4096

// Notifier posts pipeline run summaries to one chat.
type Notifier struct {
	endpoint string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier builds a notifier for botToken and chatID. An empty apiBase means DefaultAPIBase.
func NewNotifier(apiBase, botToken, chatID string) *Notifier {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	n := &Notifier{
		chatID: chatID,
		client: &http.Client{Timeout: 5 * time.Second},
	}
	if botToken != "" {
		n.endpoint = fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(apiBase, "/"), botToken)
	}
	return n
}

// apiResponse is the envelope every Bot API method answers with.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// PublishDigest sends summary as plain text, cut to the message limit.
func (n *Notifier) PublishDigest(ctx context.Context, summary string) error {
	if n.endpoint == "" || n.chatID == "" {
		return errors.New("telegram: bot token and chat id are required")
	}
	return n.sendMessage(ctx, truncate(summary))
}

func (n *Notifier) sendMessage(ctx context.Context, text string) error {
	form := url.Values{
		"chat_id":                  {n.chatID},
		"text":                     {text},
		"disable_web_page_preview": {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body apiResponse
	decodeErr := json.Unmarshal(raw, &body)

	switch {
	case resp.StatusCode != http.StatusOK && body.Description != "":
		return fmt.Errorf("telegram: %s: %s", resp.Status, body.Description)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("telegram: %s", resp.Status)
	case decodeErr != nil:
		return fmt.Errorf("telegram: decode response: %w", decodeErr)
	case !body.OK:
		return fmt.Errorf("telegram: rejected: %s", body.Description)
	}
	return nil
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageLength {
		return text
	}
	return string(runes[:maxMessageLength-3]) + "..."
}

// Noop drops every summary; used when no bot is configured.
type Noop struct{}

func (Noop) PublishDigest(context.Context, string) error { return nil }
