package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
	"de-hilfer/internal/util"
)

// OpenAIAdapter OpenAI 兼容后端适配器
type OpenAIAdapter struct {
	*BaseAdapter
	httpClient *RetryableHTTPClient
}

// NewOpenAIAdapter 创建 OpenAI 适配器。初始化失败时适配器仍被构造，
// 但标记为不可用，路由器在构建故障转移链时将其排除。
func NewOpenAIAdapter(name string, cfg config.ModelConfig, manager tools.ToolManager) *OpenAIAdapter {
	adapter := &OpenAIAdapter{
		BaseAdapter: NewBaseAdapter(name, "openai", cfg, manager),
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		adapter.markBroken(util.NewErrorWithDetail(util.ErrCodeAPIKeyMissing,
			"OpenAI API 密钥缺失", fmt.Sprintf("环境变量: %s", cfg.APIKeyEnv)))
		return adapter
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	httpClient := NewRetryableHTTPClient(baseURL, adapter.requestTimeout(), 3, time.Second)
	httpClient.SetHeader("Authorization", "Bearer "+apiKey)

	adapter.httpClient = httpClient
	adapter.markFunctional()

	util.Debugw("OpenAI 适配器创建成功", map[string]interface{}{
		"name":     name,
		"base_url": baseURL,
	})

	return adapter
}

// Chat 发送会话历史并返回解包后的助手消息
func (a *OpenAIAdapter) Chat(ctx context.Context, history *History, opts ChatOptions) (*Message, error) {
	if !a.Functional() {
		return nil, a.InitError()
	}

	startTime := time.Now()
	request := buildOpenAIRequest(a.resolveModel(opts), a.resolveTemperature(opts),
		history, a.selectTools(opts), "openai")

	var response OpenAIResponse
	err := a.httpClient.PostJSONWithRetry(ctx, "chat/completions", request, &response)

	a.UpdateMetrics(time.Since(startTime).Milliseconds(), err == nil)

	if err != nil {
		a.RecordError(err)
		return nil, err
	}

	return a.UnpackResponse(&response), nil
}

// PackHistory 将会话历史翻译为 OpenAI 的消息格式，跳过系统消息
func (a *OpenAIAdapter) PackHistory(history *History) []OpenAIMessage {
	return packOpenAIHistory(history)
}

// UnpackResponse 解析 OpenAI 兼容响应为内部消息
func (a *OpenAIAdapter) UnpackResponse(response *OpenAIResponse) *Message {
	return unpackOpenAIResponse(response)
}

// buildOpenAIRequest 构建 OpenAI 兼容请求。
// 系统提示词从历史中取出，作为首条 system 消息带外传递。
func buildOpenAIRequest(model string, temperature float64, history *History,
	defs []tools.ToolDefinition, providerKind string) *OpenAIRequest {

	var messages []OpenAIMessage
	if prompt := history.SystemPrompt(); prompt != "" {
		messages = append(messages, OpenAIMessage{Role: "system", Content: prompt})
	}
	messages = append(messages, packOpenAIHistory(history)...)

	request := &OpenAIRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}

	if len(defs) > 0 {
		request.Tools = tools.PackTools(providerKind, defs)
		request.ToolChoice = "auto"
	}

	return request
}

// packOpenAIHistory 将会话历史翻译为 OpenAI 的消息格式。
// 系统消息被跳过；一条工具结果消息展开为每个结果一条 tool 消息。
func packOpenAIHistory(history *History) []OpenAIMessage {
	var messages []OpenAIMessage

	for _, msg := range history.Messages() {
		switch msg.Role {
		case RoleSystem:
			continue

		case RoleUser:
			hasImage := false
			for _, block := range msg.Content {
				if block.Kind == BlockImage {
					hasImage = true
					break
				}
			}

			if !hasImage {
				messages = append(messages, OpenAIMessage{
					Role:    "user",
					Content: msg.Text(),
				})
				continue
			}

			// 含图像时使用多段内容格式
			var parts []map[string]any
			for _, block := range msg.Content {
				switch block.Kind {
				case BlockText:
					parts = append(parts, map[string]any{
						"type": "text",
						"text": block.Text,
					})
				case BlockImage:
					parts = append(parts, map[string]any{
						"type": "image_url",
						"image_url": map[string]any{
							"url": fmt.Sprintf("data:%s;base64,%s",
								block.MimeType, base64.StdEncoding.EncodeToString(block.Data)),
						},
					})
				}
			}
			messages = append(messages, OpenAIMessage{Role: "user", Content: parts})

		case RoleAssistant:
			openaiMsg := OpenAIMessage{
				Role:    "assistant",
				Content: msg.Text(),
			}
			for _, block := range msg.Content {
				if block.Kind != BlockToolRequest {
					continue
				}
				openaiMsg.ToolCalls = append(openaiMsg.ToolCalls, OpenAIToolCall{
					ID:   block.ID,
					Type: "function",
					Function: OpenAIFunctionCall{
						Name:      block.ToolName,
						Arguments: block.ArgumentsJSON,
					},
				})
			}
			messages = append(messages, openaiMsg)

		case RoleTool:
			for _, block := range msg.Content {
				if block.Kind != BlockToolResult {
					continue
				}
				messages = append(messages, OpenAIMessage{
					Role:       "tool",
					Content:    block.Result,
					ToolCallID: block.ToolCallID,
					Name:       block.ToolName,
				})
			}
		}
	}

	return messages
}

// unpackOpenAIResponse 解析 OpenAI 兼容响应为内部消息。
// 无选择项时返回 nil；部分兼容后端不提供工具调用 ID，此处合成。
func unpackOpenAIResponse(response *OpenAIResponse) *Message {
	if len(response.Choices) == 0 {
		return nil
	}

	choice := response.Choices[0]

	var requests []ContentBlock
	for _, toolCall := range choice.Message.ToolCalls {
		if toolCall.Type != "" && toolCall.Type != "function" {
			continue
		}

		id := toolCall.ID
		if id == "" {
			id = fmt.Sprintf("call_%s", uuid.NewString())
		}

		argsJSON := toolCall.Function.Arguments
		if argsJSON == "" {
			argsJSON = "{}"
		}

		requests = append(requests, NewToolRequestBlock(id, toolCall.Function.Name, argsJSON))
	}

	return NewMessage(RoleAssistant, MessageInput{
		Text:         choice.Message.Content,
		ToolRequests: requests,
	})
}

// OpenAI API 数据结构定义

// OpenAIRequest OpenAI 兼容 API 请求结构
type OpenAIRequest struct {
	Model       string           `json:"model"`
	Messages    []OpenAIMessage  `json:"messages"`
	Temperature float64          `json:"temperature"`
	Tools       []map[string]any `json:"tools,omitempty"`
	ToolChoice  interface{}      `json:"tool_choice,omitempty"`
}

// OpenAIMessage 请求消息结构，Content 为文本或多段内容数组
type OpenAIMessage struct {
	Role       string           `json:"role"`
	Content    any              `json:"content"`
	ToolCalls  []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

// OpenAIToolCall 工具调用
type OpenAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function OpenAIFunctionCall `json:"function"`
}

// OpenAIFunctionCall 函数调用
type OpenAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// OpenAIResponse OpenAI 兼容 API 响应结构
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

// OpenAIChoice 选择结构
type OpenAIChoice struct {
	Index        int                   `json:"index"`
	Message      OpenAIResponseMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// OpenAIResponseMessage 响应消息结构
type OpenAIResponseMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []OpenAIToolCall `json:"tool_calls,omitempty"`
}

// OpenAIUsage 使用统计
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
