package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"de-hilfer/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置管理",
	Long:  "管理 De-Hilfer 的配置文件和设置",
}

// configShowCmd represents the show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示当前配置",
	Run: func(cmd *cobra.Command, args []string) {
		showConfig()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

// showConfig 显示配置信息
func showConfig() {
	fmt.Println("当前配置:")
	fmt.Printf("  配置文件: %s\n", configPath)
	fmt.Printf("  模型后端数量: %d\n", len(config.Config.LLM.Models))
	fmt.Printf("  代理循环轮数上限: %d\n", config.Config.Agent.MaxTurns)
	fmt.Printf("  请求超时: %ds\n", config.Config.LLM.Timeout)
	fmt.Printf("  日志级别: %s\n", config.Config.Logging.Level)

	if verbose {
		fmt.Printf("  日志格式: %s\n", config.Config.Logging.Format)
		fmt.Printf("  日志输出: %s\n", config.Config.Logging.Output)
		fmt.Printf("  词典文件: %s\n", config.Config.Dictionary.Path)
		fmt.Printf("  MCP 服务器数量: %d\n", len(config.Config.MCP.Servers))
		for name, modelCfg := range config.Config.LLM.Models {
			fmt.Printf("  模型 %s: provider=%s enabled=%t 密钥已配置=%t\n",
				name, modelCfg.Provider, modelCfg.Enabled, modelCfg.APIKey() != "")
		}
	}
}
