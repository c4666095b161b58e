package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
	"de-hilfer/internal/util"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP 服务管理",
	Long:  "管理 Model Context Protocol (MCP) 服务器和工具",
}

// mcpStatusCmd shows MCP service status
var mcpStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示 MCP 服务状态",
	Run: func(cmd *cobra.Command, args []string) {
		showMCPStatus()
	},
}

// mcpListCmd lists available MCP tools
var mcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出可用的 MCP 工具",
	Run: func(cmd *cobra.Command, args []string) {
		listMCPTools()
	},
}

// mcpCallCmd calls an MCP tool directly
var mcpCallCmd = &cobra.Command{
	Use:   "call [tool_name] [arguments_json]",
	Short: "直接调用 MCP 工具",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callMCPTool(args)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.AddCommand(mcpStatusCmd)
	mcpCmd.AddCommand(mcpListCmd)
	mcpCmd.AddCommand(mcpCallCmd)
}

// showMCPStatus 显示 MCP 服务状态
func showMCPStatus() {
	fmt.Println("MCP 服务状态:")
	fmt.Println("============")

	if len(config.Config.MCP.Servers) == 0 {
		fmt.Println("未配置 MCP 服务器")
		return
	}

	if mcpService == nil {
		fmt.Println("MCP 服务未初始化")
		return
	}

	status := mcpService.ServerStatus(config.Config.MCP)
	fmt.Printf("已配置服务器数量: %d\n", len(status))
	fmt.Printf("已连接服务器数量: %d\n", len(mcpService.ConnectedServers()))

	for serverName, connected := range status {
		state := "未连接"
		if connected {
			state = "已连接"
		}
		fmt.Printf("  - %s: %s\n", serverName, state)
	}
}

// listMCPTools 列出所有 mcp 标签下的工具
func listMCPTools() {
	// 标签过滤总是包含无标签工具，这里只显示 MCP 工具
	var remote []tools.ToolDefinition
	for _, def := range toolManager.SelectTools([]string{"mcp"}) {
		for _, tag := range def.Tags {
			if tag == "mcp" {
				remote = append(remote, def)
				break
			}
		}
	}

	fmt.Printf("MCP 工具 (%d):\n", len(remote))
	for _, def := range remote {
		fmt.Printf("  - %s: %s\n", def.Name, def.Description)
	}
}

// callMCPTool 直接执行一次 MCP 工具调用
func callMCPTool(args []string) error {
	toolName := args[0]
	argumentsJSON := "{}"
	if len(args) > 1 {
		argumentsJSON = args[1]
	}

	if !strings.Contains(toolName, ".") {
		return util.NewErrorWithDetail(util.ErrCodeInvalidParam,
			"MCP 工具名格式为 <服务器>.<工具>", toolName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := toolManager.ExecuteToolCall(ctx, tools.ToolCall{
		ID:            "cli",
		Name:          toolName,
		ArgumentsJSON: argumentsJSON,
	})
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}
