package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/John-Robertt/mediorg/internal/app/organize"
	"github.com/John-Robertt/mediorg/internal/config"
	"github.com/John-Robertt/mediorg/internal/domain"
)

var _ organize.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：驱动层只发事件，CLI 决定如何展示
// - 执行阶段用进度条展示逐文件进度；失败条目先清掉进度条再打印，避免残影
type progressUI struct {
	w io.Writer

	mu   sync.Mutex
	mode string
	bar  *progressbar.ProgressBar
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = eff.Mode

	modeHint := ""
	switch eff.Mode {
	case domain.ModeReport:
		modeHint = " (只统计，不规划/不移动)"
	case domain.ModeDryRun:
		modeHint = " (完整规划，不移动/不写日志)"
	}

	fmt.Fprintf(p.w, "[%s] mediorg run (%s)\n", now.Format("15:04:05"), eff.Mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	if eff.Dest != "" {
		fmt.Fprintf(p.w, "  dest: %s\n", eff.Dest)
	}
	fmt.Fprintf(p.w, "  mode: %s%s\n", eff.Mode, modeHint)
	fmt.Fprintf(p.w, "  exclude_dirs: %s + 固定排除嵌套的 dest 与审计日志\n", formatStringListJSON(eff.ExcludeDirs))
	if strings.TrimSpace(eff.LogName) != "" {
		fmt.Fprintf(p.w, "  log_name: %s\n", eff.LogName)
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
	case "exec":
		total := intField(fields, "total")
		// report 模式不产出条目，进度条没有意义。
		if p.mode == domain.ModeReport || total <= 0 {
			return
		}
		desc := "整理"
		if p.mode == domain.ModeDryRun {
			desc = "规划"
		}
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
		)
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, item domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if item.Status == domain.StatusFailed {
		if p.bar != nil {
			_ = p.bar.Clear()
		}
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			idx, total, item.Src, item.ErrorCode, truncate(item.ErrorMsg, 160), formatShortDuration(dur),
		)
	}

	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
