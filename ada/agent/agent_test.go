package agent_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ agent.Provider = (*mockProvider)(nil)

type mockProvider struct {
	ChatFunc func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error)
}

func (mp *mockProvider) Chat(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
	if mp.ChatFunc != nil {
		return mp.ChatFunc(ctx, req)
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("message cannot be nil")
	}
	query := req.Messages[len(req.Messages)-1]
	return &agent.CCRes{Choices: []agent.Choice{{Text: query.Text()}}}, nil
}

var _ agent.ToolProvider = (*echoTool)(nil)

type echoTool struct {
	name  string
	calls []agent.FunctionCall
	err   error
}

func (e *echoTool) Def() agent.Tool {
	return agent.Tool{
		Type: "function",
		Function: agent.Function{
			Name:        e.name,
			Description: "echo the arguments",
			Parameters:  agent.ParameterSchema{Type: agent.Parameter_Type_Object},
		},
	}
}

func (e *echoTool) Call(ctx context.Context, fc agent.FunctionCall) (*agent.ToolResponse, error) {
	e.calls = append(e.calls, fc)
	if e.err != nil {
		return nil, e.err
	}
	return &agent.ToolResponse{Output: map[string]any{"args": fc.Arguments}}, nil
}

func (e *echoTool) Ping(ctx context.Context) error { return nil }

func toolCallRes(names ...string) *agent.CCRes {
	calls := []*agent.ToolCall{}
	for i, n := range names {
		calls = append(calls, &agent.ToolCall{
			ID:       fmt.Sprintf("call_%d", i),
			Type:     "function",
			Function: agent.FunctionCall{Name: n, Arguments: `{"x":1}`},
		})
	}
	return &agent.CCRes{Choices: []agent.Choice{{ToolCalls: calls}}}
}

func TestAgent_Completions(t *testing.T) {
	testCases := []struct {
		name          string
		provider      agent.Provider
		expectedText  string
		expectedError string
	}{
		{
			name: "successful completion with no tool call",
			provider: &mockProvider{
				ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
					return &agent.CCRes{Choices: []agent.Choice{{Text: "hello world"}}}, nil
				},
			},
			expectedText: "hello world",
		},
		{
			name: "successful completion with one tool call",
			provider: &mockProvider{
				ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
					if len(req.Messages) == 1 {
						return toolCallRes("echo"), nil
					}
					last := req.Messages[len(req.Messages)-1]
					if last.Role != agent.RoleTool {
						return nil, fmt.Errorf("expected tool message, got %s", last.Role)
					}
					return &agent.CCRes{Choices: []agent.Choice{{Text: "done"}}}, nil
				},
			},
			expectedText: "done",
		},
		{
			name: "error from provider",
			provider: &mockProvider{
				ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
					return nil, errors.New("provider error")
				},
			},
			expectedError: "failed executing node 'agent' : provider error",
		},
		{
			name: "empty choices",
			provider: &mockProvider{
				ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
					return &agent.CCRes{}, nil
				},
			},
			expectedError: "failed executing node 'agent' : provider returned no choices",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := agent.New(tc.provider, agent.WithTool(&echoTool{name: "echo"}))

			msg, err := a.Completion(context.Background(), []*agent.Message{
				agent.NewTextMessage(agent.RoleUser, "hello"),
			})

			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectedError, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedText, msg.Text())
		})
	}
}

func TestAgent_AllToolCallsExecuted(t *testing.T) {
	first := &echoTool{name: "first"}
	second := &echoTool{name: "second"}

	var toolMsg *agent.Message
	p := &mockProvider{
		ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
			if len(req.Messages) == 1 {
				return toolCallRes("first", "second"), nil
			}
			toolMsg = req.Messages[len(req.Messages)-1]
			return &agent.CCRes{Choices: []agent.Choice{{Text: "ok"}}}, nil
		},
	}

	a := agent.New(p, agent.WithTool(first, second))
	_, err := a.Completion(context.Background(), []*agent.Message{agent.NewTextMessage(agent.RoleUser, "go")})
	require.NoError(t, err)

	assert.Len(t, first.calls, 1)
	assert.Len(t, second.calls, 1)
	require.NotNil(t, toolMsg)
	require.Len(t, toolMsg.Parts, 2)
	assert.Equal(t, "first", toolMsg.Parts[0].ToolResponse.Name)
	assert.Equal(t, "second", toolMsg.Parts[1].ToolResponse.Name)
}

func TestAgent_ToolErrorBecomesOutput(t *testing.T) {
	broken := &echoTool{name: "broken", err: errors.New("boom")}

	var toolOutput map[string]any
	p := &mockProvider{
		ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
			if len(req.Messages) == 1 {
				return toolCallRes("broken", "missing"), nil
			}
			last := req.Messages[len(req.Messages)-1]
			toolOutput = last.Parts[0].ToolResponse.Output
			assert.Contains(t, last.Parts[1].ToolResponse.Output["error"], "tool not found")
			return &agent.CCRes{Choices: []agent.Choice{{Text: "recovered"}}}, nil
		},
	}

	a := agent.New(p, agent.WithTool(broken))
	msg, err := a.Completion(context.Background(), []*agent.Message{agent.NewTextMessage(agent.RoleUser, "go")})
	require.NoError(t, err)
	assert.Equal(t, "recovered", msg.Text())
	assert.Equal(t, "boom", toolOutput["error"])
}

func TestAgent_MaxToolRounds(t *testing.T) {
	p := &mockProvider{
		ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
			return toolCallRes("echo"), nil
		},
	}

	a := agent.New(p, agent.WithTool(&echoTool{name: "echo"}), agent.WithMaxToolRounds(2))
	_, err := a.Completion(context.Background(), []*agent.Message{agent.NewTextMessage(agent.RoleUser, "loop")})
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrMaxToolRounds)
}

func TestAgent_DoesNotMutateInput(t *testing.T) {
	p := &mockProvider{
		ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
			if len(req.Messages) == 1 {
				return toolCallRes("echo"), nil
			}
			return &agent.CCRes{Choices: []agent.Choice{{Text: "ok"}}}, nil
		},
	}
	msgs := []*agent.Message{agent.NewTextMessage(agent.RoleUser, "hi")}

	a := agent.New(p, agent.WithTool(&echoTool{name: "echo"}))
	_, err := a.Completion(context.Background(), msgs)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
