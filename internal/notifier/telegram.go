// Package notifier delivers new-listing messages through the Telegram Bot API.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gumtree-monitor/internal/config"
	"gumtree-monitor/internal/observability"
	"gumtree-monitor/internal/scraper"
)

// Telegram sends one HTML-formatted message per listing.
type Telegram struct {
	client   *http.Client
	endpoint string
	chatID   string
	preview  bool
	logger   *observability.Logger
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

func NewTelegram(cfg *config.Config, logger *observability.Logger) *Telegram {
	base := strings.TrimRight(cfg.Telegram.APIBaseURL, "/")
	return &Telegram{
		client:   &http.Client{Timeout: cfg.GetTelegramTimeout()},
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", base, cfg.Telegram.BotToken),
		chatID:   cfg.Telegram.ChatID,
		preview:  !cfg.Telegram.DisableWebPagePreview,
		logger:   logger,
	}
}

// FormatMessage renders the message body. Title, price and location are
// escaped; the link goes into the href as-is.
func FormatMessage(l scraper.Listing) string {
	var b strings.Builder
	b.WriteString("✨ <b>New listing on Gumtree!</b>\n\n")
	b.WriteString("<b>" + html.EscapeString(l.Title) + "</b>\n\n")
	b.WriteString("💰 <b>Price:</b> " + html.EscapeString(l.Price) + "\n")
	b.WriteString("📍 <b>Location:</b> " + html.EscapeString(l.Location) + "\n\n")
	b.WriteString(`🔗 <a href="` + l.Link + `">View listing</a>`)
	return b.String()
}

// Notify posts the listing and reports whether Telegram accepted it. Every
// failure is logged here; nothing is returned to the caller but false.
func (t *Telegram) Notify(ctx context.Context, l scraper.Listing) bool {
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", FormatMessage(l))
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", strconv.FormatBool(!t.preview))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		t.logger.Error("Failed to build Telegram request", "error", err.Error())
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("Telegram request failed",
			"listing", l.ID,
			"error", redact(err.Error(), t.endpoint),
		)
		return false
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Warn("Failed to close response body", "error", err.Error())
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logger.Error("Failed to read Telegram response",
			"listing", l.ID,
			"status", resp.StatusCode,
			"error", err.Error(),
		)
		return false
	}

	var parsed apiResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.logger.Error("Telegram API returned error status",
			"listing", l.ID,
			"status", resp.StatusCode,
			"description", parsed.Description,
			"body", string(body),
		)
		return false
	}

	if decodeErr != nil {
		t.logger.Error("Failed to decode Telegram response",
			"listing", l.ID,
			"error", decodeErr.Error(),
			"body", string(body),
		)
		return false
	}

	if !parsed.OK {
		t.logger.Error("Telegram API rejected message",
			"listing", l.ID,
			"description", parsed.Description,
			"body", string(body),
		)
		return false
	}

	t.logger.Info("Notification sent", "title", l.Title, "listing", l.ID)
	return true
}

// redact removes the bot token that net/http embeds in transport errors.
func redact(msg, endpoint string) string {
	return strings.ReplaceAll(msg, endpoint, "<telegram sendMessage>")
}
