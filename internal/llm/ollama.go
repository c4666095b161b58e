package llm

import (
	"context"
	"time"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
	"de-hilfer/internal/util"
)

// OllamaAdapter 本地 Ollama 后端适配器。
// Ollama 暴露 OpenAI 兼容接口，消息打包与响应解包复用 OpenAI 的
// 翻译逻辑；区别在于无需 API 密钥，且工具调用 ID 总是由本端合成。
type OllamaAdapter struct {
	*BaseAdapter
	httpClient *RetryableHTTPClient
}

// NewOllamaAdapter 创建 Ollama 适配器
func NewOllamaAdapter(name string, cfg config.ModelConfig, manager tools.ToolManager) *OllamaAdapter {
	adapter := &OllamaAdapter{
		BaseAdapter: NewBaseAdapter(name, "ollama", cfg, manager),
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}

	// 本地服务通常响应较慢，重试次数降为 1
	adapter.httpClient = NewRetryableHTTPClient(baseURL, adapter.requestTimeout(), 1, time.Second)
	adapter.markFunctional()

	util.Debugw("Ollama 适配器创建成功", map[string]interface{}{
		"name":     name,
		"base_url": baseURL,
	})

	return adapter
}

// Chat 发送会话历史并返回解包后的助手消息
func (a *OllamaAdapter) Chat(ctx context.Context, history *History, opts ChatOptions) (*Message, error) {
	if !a.Functional() {
		return nil, a.InitError()
	}

	startTime := time.Now()
	request := buildOpenAIRequest(a.resolveModel(opts), a.resolveTemperature(opts),
		history, a.selectTools(opts), "ollama")

	var response OpenAIResponse
	err := a.httpClient.PostJSONWithRetry(ctx, "chat/completions", request, &response)

	a.UpdateMetrics(time.Since(startTime).Milliseconds(), err == nil)

	if err != nil {
		a.RecordError(err)
		return nil, err
	}

	return a.UnpackResponse(&response), nil
}

// PackHistory 将会话历史翻译为 OpenAI 兼容的消息格式
func (a *OllamaAdapter) PackHistory(history *History) []OpenAIMessage {
	return packOpenAIHistory(history)
}

// UnpackResponse 解析 OpenAI 兼容响应为内部消息
func (a *OllamaAdapter) UnpackResponse(response *OpenAIResponse) *Message {
	return unpackOpenAIResponse(response)
}
