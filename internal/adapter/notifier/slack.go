package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ospreysec/iocharvest/internal/core/ports"
)

const defaultAPIURL = "https://slack.com/api/chat.postMessage"

type SlackNotifier struct {
	botToken   string
	channel    string
	apiURL     string
	httpClient *http.Client
}

func NewSlackNotifier(botToken, channel string) *SlackNotifier {
	return &SlackNotifier{
		botToken: botToken,
		channel:  channel,
		apiURL:   defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyRunSummary posts one extraction run's outcome to the channel
func (s *SlackNotifier) NotifyRunSummary(summary ports.RunSummary) error {
	blocks := s.buildRunSummaryBlocks(summary)

	payload := SlackMessage{
		Channel: s.channel,
		Blocks:  blocks,
		Text:    fmt.Sprintf("📬 IOC harvest finished: %d rows appended", summary.RowsAppended),
	}

	return s.sendMessage(payload)
}

func (s *SlackNotifier) buildRunSummaryBlocks(summary ports.RunSummary) []SlackBlock {
	masterState := "appended to existing master"
	if summary.CreatedMaster {
		masterState = "created new master"
	}

	return []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{
				Type: "plain_text",
				Text: "📬 IOC Harvest Run Complete",
			},
		},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Folder*\n%s", summary.Folder)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Window*\n%s → %s", summary.WindowStart, summary.WindowEnd)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Messages scanned*\n%d", summary.MessagesScanned)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Messages with data*\n%d", summary.MessagesWithData)},
			},
		},
		{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*Rows appended*: %d (%s)", summary.RowsAppended, masterState),
			},
		},
	}
}

// Send message to Slack
func (s *SlackNotifier) sendMessage(msg SlackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequest("POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	return nil
}

// Slack API structures

type SlackMessage struct {
	Channel string       `json:"channel"`
	Blocks  []SlackBlock `json:"blocks"`
	Text    string       `json:"text"` // Fallback text
}

type SlackBlock struct {
	Type   string      `json:"type"`
	Text   *SlackText  `json:"text,omitempty"`
	Fields []SlackText `json:"fields,omitempty"`
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
