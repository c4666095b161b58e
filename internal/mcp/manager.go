package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"de-hilfer/internal/config"
	"de-hilfer/internal/util"
)

// Manager 持有到各 MCP 服务器的 stdio 会话。
// 连接失败的服务器被记录并跳过，不影响其他服务器。
type Manager struct {
	sessions map[string]*mcp.ClientSession
	mutex    sync.RWMutex
}

// NewManager 创建 MCP 管理器
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*mcp.ClientSession),
	}
}

// Connect 根据配置建立所有 MCP 服务器会话
func (m *Manager) Connect(ctx context.Context, cfg config.MCPConfig) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(cfg.Servers) == 0 {
		return util.NewError(util.ErrCodeMCPNotConfigured, "未配置任何 MCP 服务器")
	}

	for _, session := range m.sessions {
		session.Close()
	}
	m.sessions = make(map[string]*mcp.ClientSession)

	for serverName, serverCfg := range cfg.Servers {
		if serverCfg.Command == "" {
			util.Warnw("MCP 服务器缺少启动命令，跳过", map[string]any{
				"server_name": serverName,
			})
			continue
		}

		cmd := exec.CommandContext(ctx, serverCfg.Command, serverCfg.Args...)
		cmd.Env = serverEnv(serverCfg.Env)

		client := mcp.NewClient(&mcp.Implementation{Name: "de-hilfer", Version: "1.0.0"}, nil)
		transport := mcp.NewCommandTransport(cmd)

		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		session, err := client.Connect(connectCtx, transport, nil)
		cancel()
		if err != nil {
			util.Errorw("MCP 服务器连接失败，跳过", map[string]any{
				"server_name": serverName,
				"command":     serverCfg.Command,
				"args":        serverCfg.Args,
				"error":       err.Error(),
			})
			continue
		}

		m.sessions[serverName] = session
		util.Debugw("MCP 服务器连接成功", map[string]any{
			"server_name": serverName,
		})
	}

	util.Infow("MCP 客户端初始化完成", map[string]any{
		"connected_count": len(m.sessions),
		"configured":      len(cfg.Servers),
	})

	return nil
}

// serverEnv 组合子进程环境：继承当前环境并追加配置中的 KEY=VALUE 项。
// 未配置额外变量时返回 nil，让子进程直接继承当前环境。
func serverEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}

// Sessions 返回所有已连接会话的副本
func (m *Manager) Sessions() map[string]*mcp.ClientSession {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sessions := make(map[string]*mcp.ClientSession, len(m.sessions))
	for name, session := range m.sessions {
		sessions[name] = session
	}
	return sessions
}

// Session 按服务器名称查找会话
func (m *Manager) Session(name string) (*mcp.ClientSession, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	session, exists := m.sessions[name]
	return session, exists
}

// Shutdown 关闭所有会话
func (m *Manager) Shutdown() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var lastErr error
	for serverName, session := range m.sessions {
		if err := session.Close(); err != nil {
			lastErr = util.WrapError(util.ErrCodeMCPConnectionFailed,
				fmt.Sprintf("关闭 MCP 客户端失败: %s", serverName), err)
			util.LogError(lastErr, "MCP 关闭")
		}
	}

	m.sessions = make(map[string]*mcp.ClientSession)
	return lastErr
}
