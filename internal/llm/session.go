package llm

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
	"de-hilfer/internal/util"
)

// RunState 一次代理循环运行的终止状态
type RunState string

const (
	// RunDone 模型给出最终文本回答
	RunDone RunState = "done"
	// RunFailed 所有后端都未产生响应
	RunFailed RunState = "failed"
	// RunExhausted 达到轮数上限仍未收敛，最后一条助手消息为尽力回答
	RunExhausted RunState = "exhausted"
)

// Session 单个会话。独占自己的历史，驱动 推理-执行-观察 循环。
// 历史只由本会话的循环写入，不与其他会话共享。
type Session struct {
	id       string
	history  *History
	router   *Router
	executor *tools.ToolCallExecutor
}

// NewSession 创建以指定系统提示词起始的会话
func NewSession(id, systemPrompt string, router *Router) *Session {
	return &Session{
		id:       id,
		history:  NewHistory(systemPrompt),
		router:   router,
		executor: tools.NewToolCallExecutor(router.manager),
	}
}

// ID 返回会话标识
func (s *Session) ID() string {
	return s.id
}

// History 返回会话历史
func (s *Session) History() *History {
	return s.history
}

// FinalText 返回最后一条助手消息的文本，作为当前的最终回答
func (s *Session) FinalText() string {
	messages := s.history.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAssistant {
			return messages[i].Text()
		}
	}
	return ""
}

// Run 以纯文本输入驱动一次代理循环
func (s *Session) Run(ctx context.Context, message string, maxTurns int, enabledTags []string) RunState {
	return s.RunInput(ctx, MessageInput{Text: message}, maxTurns, enabledTags)
}

// RunInput 驱动一次代理循环直到终止。
// 循环：问询模型 -> 若响应包含工具调用则依序执行并回填结果 -> 再次问询。
// 最终回答从会话历史读取，返回值只表示终止状态。
func (s *Session) RunInput(ctx context.Context, in MessageInput, maxTurns int, enabledTags []string) RunState {
	userMsg := NewMessage(RoleUser, in)
	if userMsg == nil {
		util.Warnw("无法从输入组装用户消息", map[string]any{
			"session_id": s.id,
		})
		return RunFailed
	}
	s.history.Append(*userMsg)

	if maxTurns <= 0 {
		maxTurns = s.router.MaxTurns()
	}

	for turn := 0; turn < maxTurns; turn++ {
		response := s.router.AskWithFailover(ctx, s.history, ChatOptions{
			ToolTags: enabledTags,
		})
		if response == nil {
			util.Warnw("推理失败，会话终止", map[string]any{
				"session_id": s.id,
				"turn":       turn + 1,
			})
			return RunFailed
		}
		s.history.Append(*response)

		requests := response.ToolRequests()
		if len(requests) == 0 {
			return RunDone
		}

		util.Infow("模型请求工具调用", map[string]any{
			"session_id": s.id,
			"turn":       turn + 1,
			"count":      len(requests),
		})

		results := s.executeTools(ctx, requests)
		s.history.Append(Message{Role: RoleTool, Content: results})
	}

	util.Warnw("达到轮数上限，会话终止", map[string]any{
		"session_id": s.id,
		"max_turns":  maxTurns,
	})
	return RunExhausted
}

// executeTools 严格按请求顺序依次执行工具调用。
// 任何失败都转换为错误文本结果回填给模型，而不是中断本轮。
// 结果顺序与请求顺序一一对应。
func (s *Session) executeTools(ctx context.Context, requests []ContentBlock) []ContentBlock {
	timeoutMs := 30000
	if config.Config != nil && config.Config.LLM.Timeout > 0 {
		timeoutMs = config.Config.LLM.Timeout * 1000
	}

	results := make([]ContentBlock, 0, len(requests))
	for _, request := range requests {
		result, err := s.executor.ExecuteWithRetryAndTimeout(ctx, tools.ToolCall{
			ID:            request.ID,
			Name:          request.ToolName,
			ArgumentsJSON: request.ArgumentsJSON,
		}, timeoutMs)
		if err != nil {
			result = fmt.Sprintf("Error: %s", err.Error())
		}

		results = append(results, NewToolResultBlock(
			fmt.Sprintf("result_%s", uuid.NewString()),
			request.ID,
			request.ToolName,
			result,
		))
	}

	return results
}
