package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
	"de-hilfer/internal/util"
)

// Service 把配置的 MCP 服务器接入工具注册表。
// 初始化后远端工具以 mcp 标签出现在工具注册表中，
// 和本地工具走同一条执行路径。
type Service struct {
	manager     *Manager
	toolManager tools.ToolManager
	timeout     time.Duration
}

// NewService 创建 MCP 集成服务
func NewService(toolManager tools.ToolManager, timeout time.Duration) *Service {
	return &Service{
		manager:     NewManager(),
		toolManager: toolManager,
		timeout:     timeout,
	}
}

// Initialize 连接配置的服务器并注册它们的工具。
// 无服务器配置时静默跳过，MCP 是可选集成。
func (s *Service) Initialize(ctx context.Context, cfg config.MCPConfig) error {
	if len(cfg.Servers) == 0 {
		util.Debug("未配置 MCP 服务器，跳过 MCP 初始化")
		return nil
	}

	if err := s.manager.Connect(ctx, cfg); err != nil {
		return util.WrapError(util.ErrCodeMCPConnectionFailed, "初始化 MCP 客户端失败", err)
	}

	return s.registerTools(ctx)
}

// registerTools 列举每个已连接服务器的工具并注册到工具管理器
func (s *Service) registerTools(ctx context.Context) error {
	totalTools := 0

	for serverName, session := range s.manager.Sessions() {
		result, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		if err != nil {
			util.LogErrorWithFields(
				util.WrapError(util.ErrCodeMCPToolListFailed, "获取 MCP 工具列表失败", err),
				"MCP 工具注册",
				map[string]interface{}{"server_name": serverName})
			continue
		}

		for _, toolInfo := range result.Tools {
			remoteTool := NewRemoteTool(serverName, session, toolInfo, s.timeout)

			if err := s.toolManager.RegisterTool(remoteTool); err != nil {
				util.LogErrorWithFields(err, "MCP 工具注册", map[string]interface{}{
					"server_name": serverName,
					"full_name":   remoteTool.Name(),
				})
				continue
			}

			totalTools++
		}
	}

	util.Infow("MCP 工具注册完成", map[string]any{
		"total_tools":  totalTools,
		"server_count": len(s.manager.Sessions()),
	})

	return nil
}

// RefreshTools 重连服务器并重新注册工具
func (s *Service) RefreshTools(ctx context.Context, cfg config.MCPConfig) error {
	if err := s.manager.Connect(ctx, cfg); err != nil {
		return util.WrapError(util.ErrCodeMCPConnectionFailed, "重新初始化 MCP 客户端失败", err)
	}
	return s.registerTools(ctx)
}

// ConnectedServers 返回已连接的服务器名称列表
func (s *Service) ConnectedServers() []string {
	sessions := s.manager.Sessions()
	servers := make([]string, 0, len(sessions))
	for serverName := range sessions {
		servers = append(servers, serverName)
	}
	return servers
}

// ServerStatus 返回配置服务器的连接状态
func (s *Service) ServerStatus(cfg config.MCPConfig) map[string]bool {
	status := make(map[string]bool, len(cfg.Servers))
	for serverName := range cfg.Servers {
		_, connected := s.manager.Session(serverName)
		status[serverName] = connected
	}
	return status
}

// Shutdown 关闭所有 MCP 会话
func (s *Service) Shutdown() error {
	util.Debug("关闭 MCP 服务")
	if err := s.manager.Shutdown(); err != nil {
		return fmt.Errorf("关闭 MCP 服务失败: %w", err)
	}
	return nil
}
