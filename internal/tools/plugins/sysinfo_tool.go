package plugins

import (
	"context"
	"encoding/json"
	"fmt"

	"de-hilfer/internal/util"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// SysInfoTool 本地资源探测工具，标签为 system。
// 用于评估本机是否有足够资源运行本地 Ollama 模型。
type SysInfoTool struct{}

func (s *SysInfoTool) Name() string { return "sysinfo" }

func (s *SysInfoTool) Description() string {
	return "查询本机CPU、内存和磁盘使用情况，用于评估本地模型运行条件"
}

func (s *SysInfoTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"description": "要查询的资源类型",
				"enum":        []string{"cpu", "memory", "disk", "all"},
			},
			"path": map[string]any{
				"type":        "string",
				"description": "磁盘路径（仅在action为disk时使用）",
				"default":     "/",
			},
		},
		"required": []string{"action"},
	}
}

func (s *SysInfoTool) Tags() []string { return []string{"system"} }

func (s *SysInfoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	action, ok := args["action"].(string)
	if !ok || action == "" {
		return "", util.NewError(util.ErrCodeInvalidParam, "缺少或无效的 action 参数")
	}

	switch action {
	case "cpu":
		return s.cpuInfo(ctx)
	case "memory":
		return s.memoryInfo(ctx)
	case "disk":
		path := "/"
		if p, exists := args["path"].(string); exists && p != "" {
			path = p
		}
		return s.diskInfo(ctx, path)
	case "all":
		return s.allInfo(ctx)
	default:
		return "", util.NewError(util.ErrCodeInvalidParam, fmt.Sprintf("不支持的操作: %s", action))
	}
}

// cpuInfo 获取CPU信息
func (s *SysInfoTool) cpuInfo(ctx context.Context) (string, error) {
	counts, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return "", util.WrapError(util.ErrCodeInternalErr, "获取CPU核心数失败", err)
	}

	cpuInfo, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return "", util.WrapError(util.ErrCodeInternalErr, "获取CPU信息失败", err)
	}

	result := map[string]any{
		"logical_cores": counts,
	}
	if len(cpuInfo) > 0 {
		result["model"] = cpuInfo[0].ModelName
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return fmt.Sprintf("CPU信息:\n%s", string(jsonData)), nil
}

// memoryInfo 获取内存信息
func (s *SysInfoTool) memoryInfo(ctx context.Context) (string, error) {
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return "", util.WrapError(util.ErrCodeInternalErr, "获取内存信息失败", err)
	}

	result := map[string]any{
		"total_gb":     fmt.Sprintf("%.2f", float64(vmem.Total)/1024/1024/1024),
		"available_gb": fmt.Sprintf("%.2f", float64(vmem.Available)/1024/1024/1024),
		"used_percent": fmt.Sprintf("%.2f", vmem.UsedPercent),
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return fmt.Sprintf("内存信息:\n%s", string(jsonData)), nil
}

// diskInfo 获取磁盘信息
func (s *SysInfoTool) diskInfo(ctx context.Context, path string) (string, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return "", util.WrapError(util.ErrCodeInternalErr, "获取磁盘信息失败", err)
	}

	result := map[string]any{
		"path":         path,
		"total_gb":     fmt.Sprintf("%.2f", float64(usage.Total)/1024/1024/1024),
		"free_gb":      fmt.Sprintf("%.2f", float64(usage.Free)/1024/1024/1024),
		"used_percent": fmt.Sprintf("%.2f", usage.UsedPercent),
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return fmt.Sprintf("磁盘信息 (%s):\n%s", path, string(jsonData)), nil
}

// allInfo 获取全部资源信息
func (s *SysInfoTool) allInfo(ctx context.Context) (string, error) {
	cpuInfo, err := s.cpuInfo(ctx)
	if err != nil {
		return "", err
	}

	memInfo, err := s.memoryInfo(ctx)
	if err != nil {
		return "", err
	}

	diskInfo, err := s.diskInfo(ctx, "/")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", cpuInfo, memInfo, diskInfo), nil
}

// NewSysInfoTool 创建资源探测工具实例
func NewSysInfoTool() *SysInfoTool {
	return &SysInfoTool{}
}
