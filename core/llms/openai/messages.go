package openai

import (
	"encoding/json"

	"github.com/coffeechat/voicecore/core/llms"
)

type messageType string

const (
	messageTypeMessage            messageType = "message"
	messageTypeFunctionCall       messageType = "function_call"
	messageTypeFunctionCallOutput messageType = "function_call_output"
)

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

type openAIMessage struct {
	Type    messageType `json:"type"`
	Role    messageRole `json:"role,omitempty"`
	Content string      `json:"content,omitempty"`

	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

func toOpenAIMessages(instructions string, turns []llms.Turn) []openAIMessage {
	messages := []openAIMessage{}
	if instructions != "" {
		messages = append(messages, openAIMessage{
			Type:    messageTypeMessage,
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}

	for _, turn := range turns {
		switch turn.Role {
		case llms.TurnRoleUser:
			messages = append(messages, openAIMessage{
				Type:    messageTypeMessage,
				Role:    messageRoleUser,
				Content: turn.Content,
			})
		case llms.TurnRoleAssistant:
			for _, toolCall := range turn.ToolCalls {
				messages = append(messages, openAIMessage{
					Type:      messageTypeFunctionCall,
					CallID:    toolCall.ID,
					Name:      toolCall.Name,
					Arguments: toolCall.Arguments,
				})
				if toolCall.Response != "" {
					messages = append(messages, openAIMessage{
						Type:   messageTypeFunctionCallOutput,
						CallID: toolCall.ID,
						Output: toolCall.Response,
					})
				}
			}
			if turn.Content != "" {
				messages = append(messages, openAIMessage{
					Type:    messageTypeMessage,
					Role:    messageRoleAssistant,
					Content: turn.Content,
				})
			}
		}
	}

	return messages
}

type openAITool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

func toOpenAITools(tools []llms.Tool) []openAITool {
	converted := make([]openAITool, 0, len(tools))
	for _, tool := range tools {
		parameters := json.RawMessage(`{"type":"object"}`)
		if tool.Schema() != nil {
			if data, err := json.Marshal(tool.Schema()); err == nil {
				parameters = data
			}
		}
		converted = append(converted, openAITool{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
		})
	}
	return converted
}
