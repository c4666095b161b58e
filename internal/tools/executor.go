package tools

import (
	"context"
	"fmt"
	"slices"
	"time"

	"de-hilfer/internal/util"
)

// ToolCallExecutor 工具调用执行器。
// 包装 ToolManager，为工具执行增加超时和重试。
type ToolCallExecutor struct {
	manager    ToolManager
	maxRetries int
	retryDelay time.Duration
}

// NewToolCallExecutor 创建工具调用执行器
func NewToolCallExecutor(manager ToolManager) *ToolCallExecutor {
	return &ToolCallExecutor{
		manager:    manager,
		maxRetries: 1,
		retryDelay: 500 * time.Millisecond,
	}
}

// SetRetryConfig 设置重试配置
func (e *ToolCallExecutor) SetRetryConfig(maxRetries int, retryDelayMs int) {
	e.maxRetries = maxRetries
	e.retryDelay = time.Duration(retryDelayMs) * time.Millisecond
}

// ExecuteWithRetryAndTimeout 使用重试和超时机制执行工具调用
func (e *ToolCallExecutor) ExecuteWithRetryAndTimeout(ctx context.Context, call ToolCall, timeoutMs int) (string, error) {
	var result string
	var err error

	for i := 0; i <= e.maxRetries; i++ {
		timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)

		util.Debugw("开始工具执行（尝试）", map[string]any{
			"tool_name":  call.Name,
			"call_id":    call.ID,
			"attempt":    i + 1,
			"max_tries":  e.maxRetries + 1,
			"timeout_ms": timeoutMs,
		})

		result, err = e.manager.ExecuteToolCall(timeoutCtx, call)

		if err != nil {
			// 超时是最终错误，不重试
			if timeoutCtx.Err() == context.DeadlineExceeded {
				cancel()
				util.LogErrorWithFields(err, "工具执行超时", map[string]any{
					"tool_name":  call.Name,
					"call_id":    call.ID,
					"timeout_ms": timeoutMs,
				})
				return "", util.NewErrorWithDetail(util.ErrCodeToolExecutionFailed, "工具执行超时",
					fmt.Sprintf("工具 %s 执行超过 %d 毫秒", call.Name, timeoutMs))
			}

			if i < e.maxRetries && shouldRetry(err) {
				cancel()
				util.Warnw("工具执行失败，准备重试", map[string]any{
					"tool_name":   call.Name,
					"call_id":     call.ID,
					"error":       err.Error(),
					"retry_delay": e.retryDelay,
				})
				time.Sleep(e.retryDelay)
				continue
			}

			cancel()
			return "", err
		}

		cancel()
		util.Debugw("工具执行成功", map[string]any{
			"tool_name":     call.Name,
			"call_id":       call.ID,
			"result_length": len(result),
		})
		return result, nil
	}

	return "", err
}

// shouldRetry 判断错误是否应该重试
func shouldRetry(err error) bool {
	errorCode := util.GetErrorCode(err)

	retryableCodes := []string{
		util.ErrCodeNetworkFailed,
		util.ErrCodeInternalErr,
	}

	return slices.Contains(retryableCodes, errorCode)
}
