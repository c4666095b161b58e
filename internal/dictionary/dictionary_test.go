package dictionary

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestDictionary(t *testing.T) string {
	t.Helper()

	content := `[
  {
    "query_text": "laufen",
    "analysis_markdown": "## laufen\n动词：跑、走",
    "aliases": ["läuft", "lief", "gelaufen"]
  },
  {
    "query_text": "Haus",
    "analysis_markdown": "## Haus\n名词：房子"
  }
]`

	path := filepath.Join(t.TempDir(), "dictionary.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("创建测试词典失败: %v", err)
	}
	return path
}

func TestFileStoreLookup(t *testing.T) {
	store, err := NewFileStore(writeTestDictionary(t))
	if err != nil {
		t.Fatalf("加载词典失败: %v", err)
	}

	entry := store.Lookup("laufen")
	if entry == nil {
		t.Fatal("期望命中词条 'laufen'")
	}
	if entry.QueryText != "laufen" {
		t.Errorf("期望词条为 'laufen'，实际为 '%s'", entry.QueryText)
	}

	// 别名命中原始词条
	entry = store.Lookup("gelaufen")
	if entry == nil || entry.QueryText != "laufen" {
		t.Errorf("期望别名 'gelaufen' 命中 'laufen'，实际为 %v", entry)
	}

	// 大小写与空白不敏感
	entry = store.Lookup("  HAUS ")
	if entry == nil || entry.QueryText != "Haus" {
		t.Errorf("期望 '  HAUS ' 命中 'Haus'，实际为 %v", entry)
	}

	if store.Lookup("unbekannt") != nil {
		t.Error("期望未知词条返回 nil")
	}
}

func TestFileStoreEmptyPath(t *testing.T) {
	store, err := NewFileStore("")
	if err != nil {
		t.Fatalf("期望空路径返回空词典: %v", err)
	}

	if len(store.Entries()) != 0 {
		t.Errorf("期望空词典，实际有 %d 个词条", len(store.Entries()))
	}
	if store.Lookup("laufen") != nil {
		t.Error("期望空词典查找返回 nil")
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	if _, err := NewFileStore("/nonexistent/dictionary.json"); err == nil {
		t.Error("期望缺失文件返回错误")
	}
}
