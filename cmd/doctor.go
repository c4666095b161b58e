package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"

	"de-hilfer/internal/config"
	"de-hilfer/internal/dictionary"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "诊断运行环境",
	Long:  "检查配置、模型后端、词典数据、MCP 连接和本地资源，定位常见问题",
	Run: func(cmd *cobra.Command, args []string) {
		runDoctor()
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// runDoctor 逐项检查运行环境并打印结果
func runDoctor() {
	fmt.Println("De-Hilfer 环境诊断")
	fmt.Println("==================")

	checkModels()
	checkDictionary()
	checkTools()
	checkMCP()
	checkLocalResources()
}

// checkModels 检查每个配置的模型后端
func checkModels() {
	fmt.Println("\n[模型后端]")

	names := make([]string, 0, len(config.Config.LLM.Models))
	for name := range config.Config.LLM.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	activeCount := 0
	for _, name := range names {
		modelCfg := config.Config.LLM.Models[name]
		if !modelCfg.Enabled {
			fmt.Printf("  ⏭  %s: 已禁用\n", name)
			continue
		}

		if modelCfg.APIKeyEnv != "" && modelCfg.APIKey() == "" {
			fmt.Printf("  ✗  %s: 环境变量 %s 未设置\n", name, modelCfg.APIKeyEnv)
			continue
		}

		fmt.Printf("  ✓  %s (%s, 优先级 %d)\n", name, modelCfg.Provider, modelCfg.Priority)
		activeCount++
	}

	if activeCount == 0 {
		fmt.Println("  ⚠  没有可用的模型后端，所有问询都将失败")
	}
}

// checkDictionary 检查词典数据文件
func checkDictionary() {
	fmt.Println("\n[词典]")

	path := config.Config.Dictionary.Path
	if path == "" {
		fmt.Println("  ⏭  未配置词典文件，get_entry_details 返回空结果")
		return
	}

	if _, err := os.Stat(path); err != nil {
		fmt.Printf("  ✗  词典文件不可读: %s (%v)\n", path, err)
		return
	}

	store, err := dictionary.NewFileStore(path)
	if err != nil {
		fmt.Printf("  ✗  词典文件解析失败: %v\n", err)
		return
	}

	fmt.Printf("  ✓  %s (%d 个词条)\n", path, len(store.Entries()))
}

// checkTools 检查工具注册表
func checkTools() {
	fmt.Println("\n[工具]")

	registered := toolManager.GetTools()
	if len(registered) == 0 {
		fmt.Println("  ⚠  没有注册任何工具")
		return
	}

	for _, tool := range registered {
		tags := tool.Tags()
		if len(tags) == 0 {
			fmt.Printf("  ✓  %s (始终可用)\n", tool.Name())
		} else {
			fmt.Printf("  ✓  %s %v\n", tool.Name(), tags)
		}
	}
}

// checkMCP 检查 MCP 服务器连接状态
func checkMCP() {
	fmt.Println("\n[MCP]")

	if len(config.Config.MCP.Servers) == 0 {
		fmt.Println("  ⏭  未配置 MCP 服务器")
		return
	}

	if mcpService == nil {
		fmt.Println("  ✗  MCP 服务未初始化")
		return
	}

	for serverName, connected := range mcpService.ServerStatus(config.Config.MCP) {
		if connected {
			fmt.Printf("  ✓  %s: 已连接\n", serverName)
		} else {
			fmt.Printf("  ✗  %s: 连接失败\n", serverName)
		}
	}
}

// checkLocalResources 检查本地资源，主要用于评估能否运行本地 Ollama 模型
func checkLocalResources() {
	fmt.Println("\n[本地资源]")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if counts, err := cpu.CountsWithContext(ctx, true); err == nil {
		fmt.Printf("  CPU: %d 逻辑核心\n", counts)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fmt.Printf("  内存: %.1f GB 总量, %.1f GB 可用 (%.0f%% 已用)\n",
			float64(vm.Total)/1024/1024/1024,
			float64(vm.Available)/1024/1024/1024,
			vm.UsedPercent)

		// 7B 量化模型加载大约需要 5-6 GB 空闲内存
		if vm.Available < 6*1024*1024*1024 {
			fmt.Println("  ⚠  可用内存较少，本地 7B 模型可能无法加载")
		}
	}
}
