package driver

import (
	"strings"
	"testing"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func reservationDef() agent.Tool {
	return agent.Tool{
		Type: "function",
		Function: agent.Function{
			Name:        "update_reservation",
			Description: "update the reservation draft",
			Parameters: agent.ParameterSchema{
				Type: agent.Parameter_Type_Object,
				Properties: map[string]agent.ParameterDefinition{
					"name":       {Type: "string", Description: "guest first name"},
					"party_size": {Type: "integer", Description: "number of guests"},
				},
				Required: []string{},
			},
		},
	}
}

func Test_genai(t *testing.T) {
	def := reservationDef()
	fd := ToFunctionDeclaration(&def)

	//function
	fc := def.Function
	if fd.Description != fc.Description {
		t.Fatalf("different function description, got %v expect %v", fc.Description, fd.Description)
	}

	//parameter
	actP := fd.Parameters
	expP := fc.Parameters
	require.Len(t, actP.Properties, len(expP.Properties))
	for k, v := range actP.Properties {
		vExpect := expP.Properties[k]
		if vExpect.Description != v.Description {
			t.Fatalf("different parameter description, got %v expect %v", vExpect.Description, v.Description)
		}

		if vExpect.Type != strings.ToLower(string(v.Type)) {
			t.Fatalf("different type , got %v expect %v", vExpect.Type, v.Type)
		}
	}
}

func Test_functionDeclarationWithoutParameters(t *testing.T) {
	def := agent.Tool{
		Type: "function",
		Function: agent.Function{
			Name:        "get_current_time",
			Description: "current time",
			Parameters:  agent.ParameterSchema{Type: agent.Parameter_Type_Object},
		},
	}
	fd := ToFunctionDeclaration(&def)
	assert.Equal(t, "get_current_time", fd.Name)
	assert.Nil(t, fd.Parameters)
}

func Test_messageToContent(t *testing.T) {
	msgs := &agent.Message{
		Role: agent.RoleUser,
		Parts: []*agent.Part{
			{
				Text: "test",
			},
		},
	}
	content := &genai.Content{}
	err := messageToContent(msgs, content)
	require.ErrorIs(t, nil, err)

	assert.Equal(t, (*genai.Blob)(nil), content.Parts[0].InlineData)
}

func Test_encodeMessages(t *testing.T) {
	msgs := []*agent.Message{
		agent.NewTextMessage(agent.RoleSystem, "you are ADA"),
		agent.NewTextMessage(agent.RoleUser, "what time is it?"),
		{
			Role: agent.RoleAssistant,
			Parts: []*agent.Part{{Toolcall: &agent.ToolCall{
				ID:       "1",
				Function: agent.FunctionCall{Name: "get_current_time"},
			}}},
		},
		{
			Role: agent.RoleTool,
			Parts: []*agent.Part{{ToolResponse: &agent.ToolResponse{
				Name:   "get_current_time",
				Output: map[string]any{"result": "now"},
			}}},
		},
	}

	sys, contents, err := encodeMessages(msgs)
	require.NoError(t, err)
	require.NotNil(t, sys)
	assert.Equal(t, "you are ADA", sys.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "get_current_time", contents[1].Parts[0].FunctionCall.Name)
	assert.Equal(t, genai.RoleUser, contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "now", contents[2].Parts[0].FunctionResponse.Response["result"])
}

func Test_encodeMessagesRejectsUnknownRole(t *testing.T) {
	_, _, err := encodeMessages([]*agent.Message{agent.NewTextMessage("robot", "beep")})
	require.Error(t, err)
}

func Test_encodeMessagesSystemOnly(t *testing.T) {
	_, _, err := encodeMessages([]*agent.Message{agent.NewTextMessage(agent.RoleSystem, "sys")})
	require.Error(t, err)
}

func Test_toolCallRoundTrip(t *testing.T) {
	tc, err := toToolCall(&genai.FunctionCall{
		ID:   "abc",
		Name: "update_reservation",
		Args: map[string]any{"party_size": float64(8)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"party_size":8}`, tc.Function.Arguments)

	fc, err := fromToolCall(tc)
	require.NoError(t, err)
	assert.Equal(t, "abc", fc.ID)
	assert.Equal(t, float64(8), fc.Args["party_size"])
}
