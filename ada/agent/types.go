package agent

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ChatCompletionRequest use for communicating with provider
type CCReq struct {
	Messages   []*Message
	Stream     bool
	Think      bool
	Tools      []Tool
	ToolChoice string
}

type Message struct {
	Role  Role
	Parts []*Part
}

func (m *Message) Text() string {
	texts := []string{}
	for _, p := range m.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}

	return strings.Join(texts, "")
}

// ToolCalls return every tool call carried by the message parts.
func (m *Message) ToolCalls() ([]*ToolCall, bool) {
	calls := []*ToolCall{}
	for _, p := range m.Parts {
		if p.Toolcall != nil {
			calls = append(calls, p.Toolcall)
		}
	}
	return calls, len(calls) > 0
}

type Part struct {
	Text         string
	Blob         *Blob
	Toolcall     *ToolCall
	ToolResponse *ToolResponse
}

type Blob struct {
	//raw bytes
	Bytes []byte
	//IANA standart type
	Mime string
}

// ChatCompletionResponse present result receive from provider
type CCRes struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Created time.Time `json:"created"`
	Choices []Choice  `json:"choices"`
	Usage   Usage
}

func (res *CCRes) IsToolCall() ([]*ToolCall, bool) {
	if len(res.Choices) > 0 {
		tc := res.Choices[0].ToolCalls
		if len(tc) > 0 {
			return tc, true
		}
	}
	return nil, false
}

type Choice struct {
	Index        int `json:"index"`
	Text         string
	ToolCalls    []*ToolCall `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int32 `json:"prompt_tokens"`
	CompletionTokens int32 `json:"completion_tokens"`
	TotalTokens      int32 `json:"total_tokens"`
}

// helper

func NewTextMessage(role Role, text string) *Message {
	m := &Message{
		Role: role,
		Parts: []*Part{
			{Text: text},
		},
	}
	return m
}
