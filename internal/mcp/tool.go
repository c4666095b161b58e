package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"de-hilfer/internal/util"
)

// RemoteTool 将一个 MCP 服务器工具包装为本地工具接口。
// 工具名带服务器前缀以避免跨服务器冲突，统一归入 mcp 标签。
type RemoteTool struct {
	serverName string
	session    *mcp.ClientSession
	toolInfo   *mcp.Tool
	timeout    time.Duration
}

// NewRemoteTool 创建 MCP 工具包装器
func NewRemoteTool(serverName string, session *mcp.ClientSession, toolInfo *mcp.Tool, timeout time.Duration) *RemoteTool {
	return &RemoteTool{
		serverName: serverName,
		session:    session,
		toolInfo:   toolInfo,
		timeout:    timeout,
	}
}

// Name 返回带服务器前缀的工具名称
func (t *RemoteTool) Name() string {
	return fmt.Sprintf("%s.%s", t.serverName, t.toolInfo.Name)
}

// Description 返回工具描述
func (t *RemoteTool) Description() string {
	return fmt.Sprintf("[MCP:%s] %s", t.serverName, t.toolInfo.Description)
}

// Tags 所有 MCP 工具归入 mcp 标签
func (t *RemoteTool) Tags() []string {
	return []string{"mcp"}
}

// Parameters 返回工具参数 schema
func (t *RemoteTool) Parameters() map[string]any {
	if t.toolInfo.InputSchema == nil {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	var schema map[string]any
	data, err := json.Marshal(t.toolInfo.InputSchema)
	if err == nil {
		_ = json.Unmarshal(data, &schema)
	}
	return schema
}

// Execute 通过 MCP 会话调用远端工具，文本内容拼接为结果
func (t *RemoteTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	util.Debugw("执行 MCP 工具", map[string]any{
		"server_name": t.serverName,
		"tool_name":   t.toolInfo.Name,
	})

	result, err := t.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      t.toolInfo.Name,
		Arguments: args,
	})
	if err != nil {
		return "", util.WrapError(util.ErrCodeMCPToolCallFailed,
			fmt.Sprintf("MCP 工具执行失败: %s", t.Name()), err)
	}

	if result.IsError {
		errMsg := "工具执行返回错误"
		if len(result.Content) > 0 {
			if textContent, ok := result.Content[0].(*mcp.TextContent); ok {
				errMsg = textContent.Text
			}
		}
		return "", util.NewError(util.ErrCodeMCPToolCallFailed,
			fmt.Sprintf("调用 MCP 工具失败: %s - %s", t.Name(), errMsg))
	}

	var resultStr string
	for _, content := range result.Content {
		if textContent, ok := content.(*mcp.TextContent); ok {
			resultStr += textContent.Text
		}
	}

	return resultStr, nil
}
