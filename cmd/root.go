package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"de-hilfer/internal/config"
	"de-hilfer/internal/llm"
	"de-hilfer/internal/mcp"
	"de-hilfer/internal/tools"
	_ "de-hilfer/internal/tools/plugins"
	"de-hilfer/internal/util"
)

var (
	// configPath 是配置文件的路径
	configPath string
	// verbose 标志用于启用详细输出
	verbose bool
	// toolManager 全局工具管理器
	toolManager tools.ToolManager
	// router 全局模型路由器
	router *llm.Router
	// mcpService MCP 集成服务，未配置时为 nil
	mcpService *mcp.Service
)

// rootCmd 代表没有调用子命令时的基础命令
var rootCmd = &cobra.Command{
	Use:   "de-hilfer",
	Short: "De-Hilfer 德语学习助手",
	Long: `De-Hilfer 是一个基于语言模型的德语学习助手，
提供单词查询、语法分析、拼写检查和交互式对话功能。
支持 Gemini、OpenAI 兼容服务和本地 Ollama，按优先级自动故障转移。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if mcpService != nil {
			if err := mcpService.Shutdown(); err != nil {
				util.LogError(err, "应用退出")
			}
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		showStatus()
	},
}

// Execute 将所有子命令添加到根命令并适当设置标志。
// 这是由 main.main() 调用的。它只需要对 rootCmd 调用一次。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "命令执行失败: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (默认: $DE_HILFER_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出")
}

// initializeApp 初始化应用
func initializeApp() error {
	if configPath == "" {
		configPath = os.Getenv("DE_HILFER_CONFIG")
	}

	if err := config.LoadConfig(configPath); err != nil {
		return util.WrapError(util.ErrCodeConfigInvalid, "配置加载失败", err)
	}

	logLevel := config.Config.Logging.Level
	if verbose {
		logLevel = "debug"
	}

	logFormat := config.Config.Logging.Format
	if logFormat == "" {
		logFormat = "text"
	}
	logOutput := config.Config.Logging.Output
	if logOutput == "" {
		logOutput = "stderr"
	}

	if err := util.InitLogger(logLevel, logFormat, logOutput, config.Config.Logging.File); err != nil {
		return util.WrapError(util.ErrCodeConfigInvalid, "日志系统初始化失败", err)
	}

	util.Debugw("应用配置加载完成", map[string]any{
		"config_path": configPath,
		"log_level":   logLevel,
	})

	if err := initializeTools(); err != nil {
		return util.WrapError(util.ErrCodeInitializationFailed, "工具管理器初始化失败", err)
	}

	initializeMCP()

	var err error
	router, err = llm.NewRouter(config.Config, toolManager)
	if err != nil {
		return util.WrapError(util.ErrCodeInitializationFailed, "模型路由器初始化失败", err)
	}

	return nil
}

// initializeTools 初始化工具管理器并实例化内置工具
func initializeTools() error {
	toolManager = tools.DefaultManager
	if err := toolManager.InitializeTools(); err != nil {
		return err
	}

	util.Debugw("工具状态", map[string]interface{}{
		"registered_tools": len(toolManager.GetTools()),
	})
	return nil
}

// initializeMCP 连接配置的 MCP 服务器。
// MCP 是可选集成，失败只记录警告，不阻止应用启动。
func initializeMCP() {
	if len(config.Config.MCP.Servers) == 0 {
		return
	}

	timeout := 30 * time.Second
	if config.Config.LLM.Timeout > 0 {
		timeout = time.Duration(config.Config.LLM.Timeout) * time.Second
	}

	mcpService = mcp.NewService(toolManager, timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := mcpService.Initialize(ctx, config.Config.MCP); err != nil {
		util.Warnw("MCP 初始化失败，MCP 工具不可用", map[string]any{
			"error": err.Error(),
		})
	}
}

// showStatus 显示应用状态
func showStatus() {
	fmt.Println("De-Hilfer 初始化完成")

	adapters := router.Adapters()
	if len(adapters) == 0 {
		fmt.Println("可用模型: 无 — 请检查配置和 API 密钥")
	} else {
		fmt.Println("故障转移链:")
		for i, adapter := range adapters {
			fmt.Printf("  %d. %s (%s, 优先级 %d)\n",
				i+1, adapter.Name(), adapter.Provider(), adapter.Priority())
		}
	}

	fmt.Printf("已注册工具: %d\n", len(toolManager.GetTools()))
	if mcpService != nil {
		fmt.Printf("MCP 服务器: %d 已连接\n", len(mcpService.ConnectedServers()))
	}

	fmt.Println("\n使用 'de-hilfer --help' 查看可用命令")
}
