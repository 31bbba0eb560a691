package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/odit-bit/ada/ada/agent"
	ollama "github.com/ollama/ollama/api"
)

const (
	_ollama_domain = "http://127.0.0.1:11434"
)

//-----------------------------------------------

var _ agent.Provider = (*OllamaAPI)(nil)

type OllamaAPI struct {
	model string
	c     *ollama.Client
	conf  *Config
}

func NewOllamaAdapter(model string, key string, config *Config) (*OllamaAPI, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama_adapter model cannot be empty")
	}
	if config == nil {
		config = &Config{}
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = _ollama_domain
	}
	oUrl, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	cli := ollama.NewClient(oUrl, http.DefaultClient)
	oa := OllamaAPI{
		model: model,
		c:     cli,
		conf:  config,
	}
	return &oa, nil
}

// Chat implements LLM.
func (oapi *OllamaAPI) Chat(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {

	msgs, err := ollamaMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	// implement tools
	tools := []ollama.Tool{}
	for _, tool := range req.Tools {
		var t ollama.Tool
		OllamaTransformTool(tool, &t)
		tools = append(tools, t)
	}

	oReq := &ollama.ChatRequest{
		Model:    oapi.model,
		Messages: msgs,
		Stream:   &req.Stream,
		Think:    &req.Think,
		Options:  ollamaOptions(oapi.conf),
		Tools:    tools,
	}

	var resp *agent.CCRes
	err = oapi.c.Chat(ctx, oReq, func(cr ollama.ChatResponse) error {
		tcs := []*agent.ToolCall{}
		for _, tc := range cr.Message.ToolCalls {
			tcs = append(tcs, &agent.ToolCall{
				Type: "function",
				Function: agent.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments.String(),
				},
			})
		}

		resp = &agent.CCRes{
			Model:   cr.Model,
			Created: cr.CreatedAt,
			Choices: []agent.Choice{
				{
					Text:         cr.Message.Content,
					FinishReason: cr.DoneReason,
					ToolCalls:    tcs,
				},
			},
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("ollama_adapter chat: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("ollama_adapter got no response")
	}
	return resp, nil
}

func ollamaOptions(conf *Config) map[string]any {
	opts := map[string]any{}
	set := func(key string, v *float32) {
		if v != nil {
			opts[key] = *v
		}
	}
	set("temperature", conf.Temperature)
	set("top_p", conf.TopP)
	set("top_k", conf.TopK)
	set("min_p", conf.MinP)
	return opts
}

// ollamaMessages flatten agent messages into ollama chat messages.
// tool responses are sent back as json encoded "tool" messages.
func ollamaMessages(src []*agent.Message) ([]ollama.Message, error) {
	msgs := []ollama.Message{}
	for _, msg := range src {
		if msg.Role == agent.RoleTool {
			for _, p := range msg.Parts {
				if p.ToolResponse == nil {
					continue
				}
				b, err := json.Marshal(p.ToolResponse.Output)
				if err != nil {
					return nil, fmt.Errorf("ollama_adapter failed encode tool response: %w", err)
				}
				msgs = append(msgs, ollama.Message{
					Role:    string(agent.RoleTool),
					Content: string(b),
				})
			}
			continue
		}

		oMsg := ollama.Message{
			Role:    string(msg.Role),
			Content: msg.Text(),
		}
		if calls, ok := msg.ToolCalls(); ok {
			for _, tc := range calls {
				args := ollama.ToolCallFunctionArguments{}
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						return nil, fmt.Errorf("ollama_adapter failed decode tool arguments: %w", err)
					}
				}
				oMsg.ToolCalls = append(oMsg.ToolCalls, ollama.ToolCall{
					Function: ollama.ToolCallFunction{
						Name:      tc.Function.Name,
						Arguments: args,
					},
				})
			}
		}

		msgs = append(msgs, oMsg)
	}
	return msgs, nil
}

// Transform takes a ToolA and produces the equivalent ToolB.
func OllamaTransformTool(aTool agent.Tool, bTool *ollama.Tool) {
	// var bTool ollama.Tool

	// 1) Copy the top‐level Type
	bTool.Type = aTool.Type

	// 2) Map the Function block
	bTool.Function.Name = aTool.Function.Name
	bTool.Function.Description = aTool.Function.Description

	// 3) Copy the Parameter “envelope” fields
	bTool.Function.Parameters.Type = aTool.Function.Parameters.Type
	bTool.Function.Parameters.Required = aTool.Function.Parameters.Required

	// 4) Initialize the B‐side properties map
	bTool.Function.Parameters.Properties = make(
		map[string]struct {
			Type        ollama.PropertyType `json:"type"`
			Items       any                 `json:"items,omitempty"`
			Description string              `json:"description"`
			Enum        []any               `json:"enum,omitempty"`
		},
	)

	// 5) Walk A’s Properties → build B’s Properties
	for propName, pa := range aTool.Function.Parameters.Properties {
		// convert []string → []any
		var enumAny []any
		for _, e := range pa.Enum {
			enumAny = append(enumAny, e)
		}

		// wrap the single‐string type into B.PropertyType (which is []string)
		pt := ollama.PropertyType{pa.Type}

		bTool.Function.Parameters.Properties[propName] = struct {
			Type        ollama.PropertyType `json:"type"`
			Items       any                 `json:"items,omitempty"`
			Description string              `json:"description"`
			Enum        []any               `json:"enum,omitempty"`
		}{
			Type:        pt,
			Description: pa.Description,
			Enum:        enumAny,
		}
	}

}
