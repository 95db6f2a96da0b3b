package model

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ChatRole identifies the author of a chat turn.
type ChatRole string

// Chat roles.
const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one message in a conversation about a single analysis result.
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// ChatRequest is the payload posted to the chat endpoint. The "quary" key is
// what the backend expects.
type ChatRequest struct {
	ResultID string `json:"result_id"`
	Query    string `json:"quary"`
}

// ChatReply is the answer to one question plus the backend's view of the
// conversation so far.
type ChatReply struct {
	ResultID string      `json:"result_id"`
	Answer   string      `json:"answer"`
	History  ChatHistory `json:"chat_history"`
}

// Clone returns a deep copy of the reply.
func (r ChatReply) Clone() ChatReply {
	r.History = slices.Clone(r.History)
	return r
}

// ChatHistory is an ordered transcript decoded from the backend.
//
// The backend stores exchanges as {question, response, timestamp}; each of
// those expands into a user turn followed by an assistant turn. Entries that
// already carry a role are taken as single turns.
type ChatHistory []ChatTurn

type historyEntry struct {
	Role      ChatRole `json:"role"`
	Text      string   `json:"text"`
	Content   string   `json:"content"`
	Question  string   `json:"question"`
	Response  string   `json:"response"`
	Timestamp string   `json:"timestamp"`
}

// UnmarshalJSON accepts both exchange-shaped and turn-shaped entries.
func (h *ChatHistory) UnmarshalJSON(data []byte) error {
	var entries []historyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decoding chat history: %w", err)
	}

	turns := make(ChatHistory, 0, len(entries)*2)
	for _, e := range entries {
		if e.Role != "" {
			text := e.Text
			if text == "" {
				text = e.Content
			}
			turns = append(turns, ChatTurn{Role: e.Role, Text: text})
			continue
		}
		if e.Question != "" {
			turns = append(turns, ChatTurn{Role: RoleUser, Text: e.Question})
		}
		if e.Response != "" {
			turns = append(turns, ChatTurn{Role: RoleAssistant, Text: e.Response})
		}
	}

	*h = turns
	return nil
}
