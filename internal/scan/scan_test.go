package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestScan_ExcludeNestedDestAndLog(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "organized")

	// 嵌套在 root 内的目标目录必须被排除。
	touch(t, filepath.Join(dest, "Photos", "2022", "03", "a.jpg"))
	// 审计日志自身不参与整理。
	touch(t, filepath.Join(root, "organization_log.txt"))

	// 正常文件。
	touch(t, filepath.Join(root, "in", "a.jpg"))
	touch(t, filepath.Join(root, "in", "notes.txt"))

	got, err := Scan(afero.NewOsFs(), root, dest, nil, "organization_log.txt")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个文件，实际 %d：%+v", len(got), got)
	}
	wantRel := filepath.Join("in", "a.jpg")
	if got[0].RelPath != wantRel {
		t.Fatalf("期望 rel=%q，实际=%q", wantRel, got[0].RelPath)
	}
}

func TestScan_ExcludeDirsFromConfig(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "temp", "x.jpg"))
	touch(t, filepath.Join(root, "ok", "y.jpg"))

	got, err := Scan(afero.NewOsFs(), root, "", []string{"temp"}, "")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个文件，实际 %d", len(got))
	}
	if got[0].RelPath != filepath.Join("ok", "y.jpg") {
		t.Fatalf("排除规则未生效：%+v", got)
	}
}

func TestScan_StableOrderAndFields(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "b", "2.JPG"))
	touch(t, filepath.Join(root, "a", "1.jpg"))
	touch(t, filepath.Join(root, "noext"))

	got, err := Scan(afero.NewOsFs(), root, "", nil, "")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 3 {
		t.Fatalf("期望 3 个文件，实际 %d", len(got))
	}
	// 稳定排序：按 RelPath 字典序。
	if got[0].RelPath != filepath.Join("a", "1.jpg") || got[1].RelPath != filepath.Join("b", "2.JPG") {
		t.Fatalf("排序不稳定：%+v", got)
	}
	// Ext 统一小写；无扩展名为空串。
	if got[1].Ext != ".jpg" {
		t.Fatalf("Ext 解析错误：%+v", got[1])
	}
	if got[2].Ext != "" {
		t.Fatalf("无扩展名文件解析错误：%+v", got[2])
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(afero.NewOsFs(), filepath.Join(t.TempDir(), "nope"), "", nil, ""); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
