// Package notification sends analysis reports to a Telegram channel.
package notification

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	internalerrors "github.com/olegiv/logissue-ai-go/internal/errors"
	"github.com/olegiv/logissue-ai-go/internal/issue"
	"github.com/olegiv/logissue-ai-go/internal/logging"
	"github.com/olegiv/logissue-ai-go/internal/output"
)

const (
	maxMessageLength = 4096
	// minMessageInterval is the minimum time between messages to the same channel
	// to avoid Telegram rate limits
	minMessageInterval = 1 * time.Second
	// maxRetries is the maximum number of retry attempts for sending messages
	maxRetries = 3
	// baseRetryDelay is the initial delay between retries (doubles each attempt)
	baseRetryDelay = 2 * time.Second
	// defaultRetryAfter is used when a 429 response carries no retry_after
	defaultRetryAfter = 30
	// requestTimeout bounds each Bot API call
	requestTimeout = 30 * time.Second
)

// sleep is replaced in tests.
var sleep = time.Sleep

// TelegramClient handles Telegram notifications
type TelegramClient struct {
	bot             *tgbotapi.BotAPI
	channelID       int64
	hostname        string
	lastMessageTime time.Time
	log             *logging.SecureLogger
}

// NewTelegramClient creates a client for the public Bot API. log may be nil.
func NewTelegramClient(botToken string, channelID int64, log *logging.SecureLogger) (*TelegramClient, error) {
	return NewTelegramClientWithEndpoint(botToken, channelID, tgbotapi.APIEndpoint,
		&http.Client{Timeout: requestTimeout}, log)
}

// NewTelegramClientWithEndpoint creates a client for a custom Bot API endpoint,
// such as a self-hosted Bot API server. endpoint uses the tgbotapi.APIEndpoint
// format with placeholders for the token and method.
func NewTelegramClientWithEndpoint(botToken string, channelID int64, endpoint string, client tgbotapi.HTTPClient, log *logging.SecureLogger) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		// Bot API errors can echo the request URL, which holds the token
		return nil, internalerrors.Wrapf(err, "failed to create Telegram bot")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &TelegramClient{
		bot:       bot,
		channelID: channelID,
		hostname:  hostname,
		log:       log,
	}, nil
}

// SendIssueReport sends the ranked issues of a run to the channel.
func (t *TelegramClient) SendIssueReport(result *analyzer.Result) error {
	message := t.formatMessage(result)

	if err := t.sendToChannel(t.channelID, message); err != nil {
		return fmt.Errorf("failed to send report to channel: %w", err)
	}

	t.log.Info().Int64("channel_id", t.channelID).Int("issues", len(result.Ranked)).Msg("Report sent to Telegram")
	return nil
}

// formatMessage formats a run into a MarkdownV2 message
func (t *TelegramClient) formatMessage(result *analyzer.Result) string {
	var msg strings.Builder

	msg.WriteString("🔍 *Log Issue Analysis Report*\n")
	msg.WriteString(fmt.Sprintf("🖥 Host\\: %s\n", escapeMarkdown(t.hostname)))
	msg.WriteString(fmt.Sprintf("📅 Date\\: %s\n", escapeMarkdown(result.CreatedAt.Local().Format("2006-01-02 15:04:05"))))
	if result.Source != nil {
		msg.WriteString(fmt.Sprintf("📂 Source\\: %s\n", escapeMarkdown(output.FormatSourceInfo(result.Source))))
	}
	if result.Keyword != "" {
		msg.WriteString(fmt.Sprintf("🔎 Filter\\: %s\n", escapeMarkdown(result.Keyword)))
	}
	msg.WriteString("\n")

	if stats := result.Stats; stats != nil {
		msg.WriteString("📋 *Execution Stats*\n")
		msg.WriteString(fmt.Sprintf("• Model\\: %s\n", escapeMarkdown(stats.Provider+" "+stats.Model)))
		msg.WriteString(fmt.Sprintf("• Tokens\\: %d in / %d out\n", stats.InputTokens, stats.OutputTokens))
		msg.WriteString(fmt.Sprintf("• Cost\\: %s\n", escapeMarkdown(fmt.Sprintf("$%.4f", stats.CostUSD))))
		msg.WriteString(fmt.Sprintf("• Duration\\: %s\n\n", escapeMarkdown(fmt.Sprintf("%.2fs", stats.DurationSeconds))))
	}

	if result.Empty() {
		msg.WriteString("✅ " + escapeMarkdown(output.NoIssuesMessage) + "\n")
		return msg.String()
	}

	msg.WriteString(fmt.Sprintf("📊 *Detected Issues* \\(%d\\)\n", len(result.Ranked)))
	msg.WriteString(escapeMarkdown(output.FormatSeverityCounts(result.Ranked)))
	msg.WriteString("\n\n")

	for i, r := range result.Ranked {
		msg.WriteString(fmt.Sprintf("%s %d\\. *%s* \\- %s\n",
			severityEmoji(r.Severity), i+1, escapeMarkdown(r.Severity), escapeMarkdown(r.Snippet)))
		if r.Cause != "" {
			msg.WriteString(fmt.Sprintf("   _Cause\\:_ %s\n", escapeMarkdown(r.Cause)))
		}
		if r.Resolution != "" {
			msg.WriteString(fmt.Sprintf("   _Resolution\\:_ %s\n", escapeMarkdown(r.Resolution)))
		}
		msg.WriteString("\n")
	}

	return msg.String()
}

// severityEmoji returns the marker shown before an issue heading
func severityEmoji(severity string) string {
	switch severity {
	case issue.SeverityCritical:
		return "🔴"
	case issue.SeverityHigh, issue.SeverityError:
		return "🟠"
	case issue.SeverityWarning, issue.SeverityMedium:
		return "🟡"
	default:
		return "🔵"
	}
}

// sendToChannel sends a message to a Telegram channel with rate limiting
func (t *TelegramClient) sendToChannel(channelID int64, message string) error {
	messages := splitMessage(message)

	for _, msg := range messages {
		t.waitForRateLimit()

		msgConfig := tgbotapi.NewMessage(channelID, msg)
		msgConfig.ParseMode = tgbotapi.ModeMarkdownV2

		if err := t.sendWithRetry(msgConfig); err != nil {
			return err
		}

		t.lastMessageTime = time.Now()
	}

	return nil
}

// waitForRateLimit ensures minimum interval between messages
func (t *TelegramClient) waitForRateLimit() {
	if t.lastMessageTime.IsZero() {
		return
	}

	elapsed := time.Since(t.lastMessageTime)
	if elapsed < minMessageInterval {
		sleep(minMessageInterval - elapsed)
	}
}

// sendWithRetry sends a message with exponential backoff retry
func (t *TelegramClient) sendWithRetry(msgConfig tgbotapi.MessageConfig) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err := t.bot.Send(msgConfig)
		if err == nil {
			return nil
		}

		lastErr = err

		if retryAfter, ok := rateLimitRetryAfter(err); ok {
			t.log.Warn().Int("retry_after", retryAfter).Int("attempt", attempt).Msg("Telegram rate limit hit")
			if attempt < maxRetries {
				sleep(time.Duration(retryAfter) * time.Second)
			}
			continue
		}

		if isPermanentError(err) {
			break
		}

		if attempt < maxRetries {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 2s, 4s, 8s...
			t.log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("Telegram send failed, retrying")
			sleep(delay)
		}
	}

	return internalerrors.Wrapf(lastErr, "failed to send message after %d retries", maxRetries)
}

// rateLimitRetryAfter reports whether err is a Telegram 429 and how many
// seconds to wait before retrying.
func rateLimitRetryAfter(err error) (int, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code != http.StatusTooManyRequests {
			return 0, false
		}
		if apiErr.RetryAfter > 0 {
			return apiErr.RetryAfter, true
		}
		return defaultRetryAfter, true
	}

	if err != nil && strings.Contains(err.Error(), "Too Many Requests") {
		return extractRetryAfter(err.Error()), true
	}
	return 0, false
}

// isPermanentError reports Bot API rejections that a retry cannot fix, such as
// a malformed message or a channel the bot cannot post to.
func isPermanentError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// extractRetryAfter reads "retry after N" from an error message
func extractRetryAfter(errStr string) int {
	if idx := strings.Index(strings.ToLower(errStr), "retry after "); idx != -1 {
		remaining := errStr[idx+len("retry after "):]
		var seconds int
		if _, err := fmt.Sscanf(remaining, "%d", &seconds); err == nil && seconds > 0 {
			return seconds
		}
	}
	return defaultRetryAfter
}

// splitMessage splits a long message into chunks of at most maxMessageLength
// bytes, preferring line boundaries. Long lines are cut on rune boundaries and
// never directly after an escaping backslash.
func splitMessage(message string) []string {
	if len(message) <= maxMessageLength {
		return []string{message}
	}

	var messages []string
	var currentMsg strings.Builder

	for _, line := range strings.Split(message, "\n") {
		if currentMsg.Len()+len(line)+1 > maxMessageLength {
			if currentMsg.Len() > 0 {
				messages = append(messages, currentMsg.String())
				currentMsg.Reset()
			}

			if len(line) > maxMessageLength {
				messages = append(messages, splitLine(line)...)
				continue
			}
		}

		currentMsg.WriteString(line)
		currentMsg.WriteString("\n")
	}

	if currentMsg.Len() > 0 {
		messages = append(messages, currentMsg.String())
	}

	return messages
}

// splitLine cuts a single overlong line into chunks.
func splitLine(line string) []string {
	var chunks []string
	for len(line) > maxMessageLength {
		end := maxMessageLength
		for end > 0 && !utf8.RuneStart(line[end]) {
			end--
		}
		backslashes := 0
		for i := end - 1; i >= 0 && line[i] == '\\'; i-- {
			backslashes++
		}
		if backslashes%2 == 1 {
			end--
		}
		chunks = append(chunks, line[:end])
		line = line[end:]
	}
	if line != "" {
		chunks = append(chunks, line)
	}
	return chunks
}

// markdownReplacer escapes special characters for Telegram MarkdownV2.
// See: https://core.telegram.org/bots/api#markdownv2-style
var markdownReplacer = func() *strings.Replacer {
	specialChars := []string{
		"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!", ":",
	}
	pairs := make([]string, 0, len(specialChars)*2)
	for _, char := range specialChars {
		pairs = append(pairs, char, "\\"+char)
	}
	return strings.NewReplacer(pairs...)
}()

// escapeMarkdown escapes special characters for Telegram MarkdownV2
func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// GetBotInfo returns information about the bot
func (t *TelegramClient) GetBotInfo() map[string]interface{} {
	return map[string]interface{}{
		"username":   t.bot.Self.UserName,
		"channel_id": t.channelID,
		"hostname":   t.hostname,
	}
}

// Close closes the Telegram client
func (t *TelegramClient) Close() error {
	t.bot.StopReceivingUpdates()
	return nil
}
