// Package notifications posts run reports to chat webhooks.
package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// discordMaxContent is the longest message body Discord accepts.
const discordMaxContent = 2000

var client = &http.Client{Timeout: 10 * time.Second}

type discordMessage struct {
	Content string `json:"content"`
}

// SendToDiscordWebhook posts messages to a Discord webhook, one request per
// message. Messages longer than Discord allows are cut short.
func SendToDiscordWebhook(webhookURL string, messages []string) error {
	for _, msg := range messages {
		if strings.TrimSpace(msg) == "" {
			continue
		}
		msg = truncate(msg, discordMaxContent)

		body, err := json.Marshal(discordMessage{Content: msg})
		if err != nil {
			return err
		}

		resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to discord: %w", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("discord webhook returned %s", resp.Status)
		}
	}
	return nil
}

// truncate shortens msg to at most limit bytes, ending it with "...". The
// cut never splits a multi-byte character.
func truncate(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}
