package auditlog

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestAppend_OneLinePerMoveAndAppendOnly(t *testing.T) {
	fsys := afero.NewMemMapFs()

	s, err := Open(fsys, "/dst", "", "run-1")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	at := time.Date(2022, 3, 10, 12, 0, 0, 0, time.FixedZone("X", 8*3600))
	if err := s.Append("/src/a.jpg", "/dst/Photos/2022/03/a.jpg", at); err != nil {
		t.Fatalf("Append 失败：%v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close 失败：%v", err)
	}

	// 第二次 run 必须追加，不能截断。
	s2, err := Open(fsys, "/dst", "", "run-2")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := s2.Append("/src/b.txt", "/dst/NonMedia/b.txt", at); err != nil {
		t.Fatalf("Append 失败：%v", err)
	}
	if err := s2.Close(); err != nil {
		t.Fatalf("Close 失败：%v", err)
	}

	b, err := afero.ReadFile(fsys, "/dst/"+DefaultName)
	if err != nil {
		t.Fatalf("读取日志失败：%v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("期望 2 行，实际 %d：%q", len(lines), string(b))
	}
	// 时间必须是 UTC（RFC3339，Z 后缀）；字段制表符分隔。
	first := strings.Split(lines[0], "\t")
	if len(first) != 4 {
		t.Fatalf("期望 4 个字段，实际 %d：%q", len(first), lines[0])
	}
	if first[0] != "2022-03-10T04:00:00Z" {
		t.Fatalf("时间未转为 UTC：%q", first[0])
	}
	if first[1] != "run-1" || first[2] != "/src/a.jpg" {
		t.Fatalf("字段内容不正确：%v", first)
	}
	if !strings.Contains(lines[1], "run-2") {
		t.Fatalf("第二行应来自 run-2：%q", lines[1])
	}
}

func TestOpen_RejectsPathyName(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if _, err := Open(fsys, "/dst", "../escape.txt", "run-1"); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}
