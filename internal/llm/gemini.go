package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
	"de-hilfer/internal/util"
)

// GeminiAdapter Gemini 后端适配器
type GeminiAdapter struct {
	*BaseAdapter
	httpClient *RetryableHTTPClient
}

// NewGeminiAdapter 创建 Gemini 适配器。初始化失败时适配器仍被构造，
// 但标记为不可用，路由器在构建故障转移链时将其排除。
func NewGeminiAdapter(name string, cfg config.ModelConfig, manager tools.ToolManager) *GeminiAdapter {
	adapter := &GeminiAdapter{
		BaseAdapter: NewBaseAdapter(name, "gemini", cfg, manager),
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		adapter.markBroken(util.NewErrorWithDetail(util.ErrCodeAPIKeyMissing,
			"Gemini API 密钥缺失", fmt.Sprintf("环境变量: %s", cfg.APIKeyEnv)))
		return adapter
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	httpClient := NewRetryableHTTPClient(baseURL, adapter.requestTimeout(), 3, time.Second)
	// Gemini API 使用 x-goog-api-key header 进行认证
	httpClient.SetHeader("x-goog-api-key", apiKey)

	adapter.httpClient = httpClient
	adapter.markFunctional()

	util.Debugw("Gemini 适配器创建成功", map[string]interface{}{
		"name":     name,
		"base_url": baseURL,
	})

	return adapter
}

// Chat 发送会话历史并返回解包后的助手消息
func (a *GeminiAdapter) Chat(ctx context.Context, history *History, opts ChatOptions) (*Message, error) {
	if !a.Functional() {
		return nil, a.InitError()
	}

	startTime := time.Now()
	request := a.buildRequest(history, opts)

	// Gemini API 端点格式为 models/MODEL_NAME:generateContent
	endpoint := fmt.Sprintf("models/%s:generateContent", a.resolveModel(opts))

	var response GeminiResponse
	err := a.httpClient.PostJSONWithRetry(ctx, endpoint, request, &response)

	a.UpdateMetrics(time.Since(startTime).Milliseconds(), err == nil)

	if err != nil {
		a.RecordError(err)
		return nil, err
	}

	return a.UnpackResponse(&response), nil
}

// buildRequest 构建 Gemini API 请求
func (a *GeminiAdapter) buildRequest(history *History, opts ChatOptions) *GeminiRequest {
	req := &GeminiRequest{
		Contents: a.PackHistory(history),
		GenerationConfig: &GeminiGenerationConfig{
			Temperature: a.resolveTemperature(opts),
		},
	}

	// 系统提示词作为带外指令传递，不出现在 contents 中
	if prompt := history.SystemPrompt(); prompt != "" {
		req.SystemInstruction = &GeminiContent{
			Parts: []GeminiPart{{Text: prompt}},
		}
	}

	if defs := a.selectTools(opts); len(defs) > 0 {
		req.Tools = tools.PackTools("gemini", defs)
	}

	return req
}

// PackHistory 将会话历史翻译为 Gemini 的消息格式。
// 系统消息被跳过；Gemini 只有 user/model 两种角色，助手消息和
// 工具结果消息都折叠到 model 角色。
func (a *GeminiAdapter) PackHistory(history *History) []GeminiContent {
	var contents []GeminiContent

	for _, msg := range history.Messages() {
		switch msg.Role {
		case RoleSystem:
			continue

		case RoleUser:
			var parts []GeminiPart
			for _, block := range msg.Content {
				switch block.Kind {
				case BlockText:
					parts = append(parts, GeminiPart{Text: block.Text})
				case BlockImage:
					parts = append(parts, GeminiPart{
						InlineData: &GeminiInlineData{
							MimeType: block.MimeType,
							Data:     block.Data,
						},
					})
				}
			}
			if len(parts) > 0 {
				contents = append(contents, GeminiContent{Role: "user", Parts: parts})
			}

		case RoleAssistant:
			var parts []GeminiPart
			for _, block := range msg.Content {
				switch block.Kind {
				case BlockText:
					parts = append(parts, GeminiPart{Text: block.Text})
				case BlockToolRequest:
					args := map[string]any{}
					if block.ArgumentsJSON != "" {
						// 解析失败时退化为空参数，由模型侧自行纠正
						_ = json.Unmarshal([]byte(block.ArgumentsJSON), &args)
					}
					parts = append(parts, GeminiPart{
						FunctionCall: &GeminiFunctionCall{
							Name: block.ToolName,
							Args: args,
						},
					})
				}
			}
			if len(parts) > 0 {
				contents = append(contents, GeminiContent{Role: "model", Parts: parts})
			}

		case RoleTool:
			var parts []GeminiPart
			for _, block := range msg.Content {
				if block.Kind != BlockToolResult {
					continue
				}
				parts = append(parts, GeminiPart{
					FunctionResponse: &GeminiFunctionResponse{
						Name: block.ToolName,
						Response: map[string]any{
							"content": block.Result,
						},
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, GeminiContent{Role: "model", Parts: parts})
			}
		}
	}

	return contents
}

// UnpackResponse 解析 Gemini 响应为内部消息。
// 无候选响应时返回说明性的文本消息；提取不到任何内容块时返回 nil。
// Gemini 不提供工具调用 ID，此处合成唯一 ID。
func (a *GeminiAdapter) UnpackResponse(response *GeminiResponse) *Message {
	if len(response.Candidates) == 0 {
		text := "The model returned no response candidates."
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			text = fmt.Sprintf("The request was blocked: %s", response.PromptFeedback.BlockReason)
		}
		return NewMessage(RoleAssistant, MessageInput{Text: text})
	}

	candidate := response.Candidates[0]
	if candidate.Content == nil {
		return nil
	}

	var text string
	var requests []ContentBlock

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
		if part.FunctionCall != nil {
			argsJSON := "{}"
			if data, err := json.Marshal(part.FunctionCall.Args); err == nil {
				argsJSON = string(data)
			}
			requests = append(requests, NewToolRequestBlock(
				fmt.Sprintf("call_%s", uuid.NewString()),
				part.FunctionCall.Name,
				argsJSON,
			))
		}
	}

	return NewMessage(RoleAssistant, MessageInput{Text: text, ToolRequests: requests})
}

// Gemini API 数据结构

type GeminiRequest struct {
	Contents          []GeminiContent         `json:"contents"`
	SystemInstruction *GeminiContent          `json:"systemInstruction,omitempty"`
	Tools             []map[string]any        `json:"tools,omitempty"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text             string                  `json:"text,omitempty"`
	InlineData       *GeminiInlineData       `json:"inlineData,omitempty"`
	FunctionCall     *GeminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *GeminiFunctionResponse `json:"functionResponse,omitempty"`
}

// GeminiInlineData 内联图像数据，Data 序列化为 base64
type GeminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type GeminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type GeminiFunctionResponse struct {
	Name     string      `json:"name"`
	Response interface{} `json:"response"`
}

type GeminiResponse struct {
	Candidates     []GeminiCandidate `json:"candidates"`
	PromptFeedback *PromptFeedback   `json:"promptFeedback,omitempty"`
}

type GeminiCandidate struct {
	Content      *GeminiContent `json:"content"`
	FinishReason string         `json:"finishReason"`
}

type PromptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}
