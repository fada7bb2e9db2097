package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

var ErrInvalidMessage = goerr.New("invalid message")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a human-visible conversation entry exchanged with the caller
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts content either as a string or as an array of
// content blocks. Only text blocks are kept.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "failed to unmarshal message")
	}

	switch raw.Role {
	case RoleUser, RoleAssistant:
	default:
		return goerr.Wrap(ErrInvalidMessage, "unknown role", goerr.V("role", string(raw.Role)))
	}
	m.Role = raw.Role
	m.Content = ""

	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(raw.Content, &text); err == nil {
		m.Content = text
		return nil
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw.Content, &blocks); err != nil {
		return goerr.Wrap(ErrInvalidMessage, "content must be a string or an array of blocks")
	}
	var texts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			texts = append(texts, b.Text)
		}
	}
	m.Content = strings.Join(texts, "\n")
	return nil
}

// ToContents converts caller history into model contents. Empty entries are
// dropped since the model rejects contents without parts.
func ToContents(history []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}
	return contents
}
