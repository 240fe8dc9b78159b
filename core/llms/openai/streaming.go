package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coffeechat/voicecore/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	responsesURL = "https://api.openai.com/v1/responses"

	eventPrefix = "event:"
	chunkPrefix = "data:"
)

// Client streams completions from the OpenAI responses API.
type Client struct {
	apiKey string
	model  string
}

func NewClient(apiKey, model string) *Client {
	return &Client{apiKey: apiKey, model: model}
}

// PromptWithStream prepares a streaming completion for the given prompt on
// top of the conversation history. Nothing is sent until Chunks is consumed.
func (c *Client) PromptWithStream(prompt string, instructions string, history []llms.Turn, tools []llms.Tool) llms.Stream {
	messages := toOpenAIMessages(instructions, history)
	messages = append(messages, openAIMessage{
		Type:    messageTypeMessage,
		Role:    messageRoleUser,
		Content: prompt,
	})

	var openAITools []openAITool
	if len(tools) > 0 {
		openAITools = toOpenAITools(tools)
	}

	return &stream{
		apiKey:   c.apiKey,
		model:    c.model,
		tools:    openAITools,
		messages: messages,
	}
}

type stream struct {
	apiKey string

	model    string
	tools    []openAITool
	messages []openAIMessage
}

type requestBody struct {
	Model      string          `json:"model"`
	Input      []openAIMessage `json:"input"`
	Stream     bool            `json:"stream"`
	Tools      []openAITool    `json:"tools,omitempty"`
	ToolChoice string          `json:"tool_choice,omitempty"`
}

func (s *stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "stream completion")
		defer span.End()

		reqBody := requestBody{
			Model:  s.model,
			Input:  s.messages,
			Stream: true,
			Tools:  s.tools,
		}
		if s.tools != nil {
			reqBody.ToolChoice = "auto"
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			yield(nil, fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", responsesURL, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			yield(nil, fmt.Errorf("error creating HTTP request: %w", err))
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return fmt.Sprintf("%s %s %s", operationName, request.Method, request.URL.Path)
			}),
		)}
		resp, err := client.Do(req)
		if err != nil {
			yield(nil, fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			yield(nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if len(line) == 0 || !strings.HasPrefix(line, eventPrefix) {
				continue
			}
			event := strings.TrimSpace(strings.TrimPrefix(line, eventPrefix))

			scanner.Scan()
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

			switch streamingEventType(event) {
			case streamingEventResponseOutputTextDelta:
				var responseBody streamingBodyResponseTextDelta
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}
				if !yield(streamContentChunk{content: responseBody.Delta}, nil) {
					return
				}

			case streamingEventResponseOutputItemDone:
				var probe streamingBodyOutputItemDone[streamingBodyOutputItem]
				if err := json.Unmarshal([]byte(chunk), &probe); err != nil {
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}
				if probe.Item.Type != "function_call" {
					continue
				}

				var responseBody streamingBodyOutputItemDone[streamingBodyFunctionCallItem]
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}
				if !yield(streamToolCallChunk{
					toolCall: llms.ToolCall{
						ID:        responseBody.Item.CallID,
						Name:      responseBody.Item.Name,
						Arguments: responseBody.Item.Arguments,
					},
				}, nil) {
					return
				}

			case streamingEventResponseCompleted:
				finishReason := "stop"
				if !yield(streamContentChunk{finishReason: &finishReason}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}

type streamingEventType string

const (
	streamingEventResponseOutputTextDelta streamingEventType = "response.output_text.delta"
	streamingEventResponseOutputItemDone  streamingEventType = "response.output_item.done"
	streamingEventResponseCompleted       streamingEventType = "response.completed"
)

type streamingBodyResponseTextDelta struct {
	Delta string `json:"delta"`
}

type streamingBodyOutputItemDone[T any] struct {
	Item T `json:"item"`
}

type streamingBodyOutputItem struct {
	Type string `json:"type"`
}

type streamingBodyFunctionCallItem struct {
	Arguments string `json:"arguments"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
}

type streamContentChunk struct {
	finishReason *string
	content      string
}

func (s streamContentChunk) FinishReason() *string { return s.finishReason }
func (s streamContentChunk) Content() string       { return s.content }

type streamToolCallChunk struct {
	finishReason *string
	toolCall     llms.ToolCall
}

func (s streamToolCallChunk) FinishReason() *string  { return s.finishReason }
func (s streamToolCallChunk) ToolCall() llms.ToolCall { return s.toolCall }
