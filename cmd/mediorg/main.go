package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/John-Robertt/mediorg/internal/app/organize"
	"github.com/John-Robertt/mediorg/internal/config"
	"github.com/John-Robertt/mediorg/internal/domain"
	"github.com/John-Robertt/mediorg/internal/infra/auditlog"
	"github.com/John-Robertt/mediorg/internal/infra/fsx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:    ra.Path,
		Dest:    ra.Dest,
		DestSet: ra.DestSet,
		Mode:    ra.Mode,
		ModeSet: ra.ModeSet,
	})
	if err != nil {
		rr := reportForConfigError(cwdAbs, ra, err)
		emitReport(rr)
		return 1
	}

	fsys := afero.NewOsFs()

	progressW, interactive := pickProgressWriter()
	var obs organize.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := organize.New(fsys).Execute(context.Background(), eff, obs)

	// organize：必须写入 <dest>/report.json；report/dry-run 禁止落盘。
	if eff.Mode == domain.ModeOrganize {
		if err := writeReportFile(fsys, eff.Dest, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	// 退出码只反映 run 级失败；单个文件移动失败不改变退出码
	// （它们已体现在 summary 与 stderr 的失败清单里）。
	if hasRunLevelFailure(rr) {
		return 1
	}
	return 0
}

// hasRunLevelFailure 判断是否存在 run 级失败的合成条目（源不可读、
// 目标不可建、日志打不开等）。合成条目没有 src，以此与单文件失败区分。
func hasRunLevelFailure(rr domain.RunReport) bool {
	for _, it := range rr.Items {
		if it.Status == domain.StatusFailed && it.Src == "" {
			return true
		}
	}
	return false
}

type runArgs struct {
	Path string

	Dest    string
	DestSet bool

	Mode    string
	ModeSet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	setMode := func(m string) error {
		if ra.ModeSet && ra.Mode != m {
			return fmt.Errorf("--report-only 与 --dry-run 不能同时使用")
		}
		ra.Mode = m
		ra.ModeSet = true
		return nil
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--dest":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("--dest 需要一个值")
			}
			i++
			ra.Dest = args[i]
			ra.DestSet = true
		case strings.HasPrefix(a, "--dest="):
			ra.Dest = strings.TrimPrefix(a, "--dest=")
			ra.DestSet = true
		case a == "--report-only":
			if err := setMode(domain.ModeReport); err != nil {
				return runArgs{}, err
			}
		case a == "--dry-run":
			if err := setMode(domain.ModeDryRun); err != nil {
				return runArgs{}, err
			}
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.Path != "" {
				return runArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ra.Path, a)
			}
			ra.Path = a
		}
	}

	if ra.DestSet && strings.TrimSpace(ra.Dest) == "" {
		return runArgs{}, fmt.Errorf("--dest 不能为空")
	}

	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mediorg run [path] [--dest DIR] [--report-only | --dry-run]

命令：
  run    扫描并整理媒体文件（默认真实移动）

使用 "mediorg run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mediorg run [path] [--dest DIR] [--report-only | --dry-run]

参数：
  --dest         目标根目录（report-only 模式可省略）
  --report-only  只统计分桶与体积，不规划、不移动
  --dry-run      完整规划（含冲突改名），但不移动、不写日志
  -h, --help     显示帮助

不加模式参数即执行真实整理：移动文件并在目标根目录追加审计日志。
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：scanned=%d photos=%d videos=%d other=%d unknown_date=%d moved=%d failed=%d\n",
			rr.Summary.Scanned, rr.Summary.Photos, rr.Summary.Videos, rr.Summary.Other,
			rr.Summary.UnknownDate, rr.Summary.Moved, rr.Summary.Failed,
		)
		emitTallies(os.Stdout, rr.Tallies)
		if rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusFailed {
					continue
				}
				key := it.Src
				if key == "" {
					// run 级失败的合成条目没有 src。
					key = "<run>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：scanned=%d photos=%d videos=%d other=%d unknown_date=%d moved=%d failed=%d\n",
		rr.Summary.Scanned, rr.Summary.Photos, rr.Summary.Videos, rr.Summary.Other,
		rr.Summary.UnknownDate, rr.Summary.Moved, rr.Summary.Failed,
	)
}

func emitTallies(w io.Writer, tallies []domain.BucketTally) {
	for _, t := range tallies {
		fmt.Fprintf(w, "  %-8s files=%d size=%s\n", t.Bucket, t.Files, formatSize(t.Bytes))
		for _, e := range t.ByExt {
			fmt.Fprintf(w, "    %-10s %d (%s)\n", e.Ext, e.Files, formatSize(e.Bytes))
		}
	}
}

// formatSize 用 1024 进制输出人类可读体积，保留一位小数。
func formatSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	f := float64(n)
	for _, unit := range []string{"KB", "MB", "GB"} {
		f /= 1024
		if f < 1024 {
			return fmt.Sprintf("%.1f %s", f, unit)
		}
	}
	return fmt.Sprintf("%.1f TB", f/1024)
}

func reportForConfigError(cwdAbs string, ra runArgs, err error) domain.RunReport {
	now := time.Now().UTC()

	mode := config.DefaultMode
	if ra.ModeSet {
		mode = ra.Mode
	}

	rr := domain.RunReport{
		Mode:       mode,
		Source:     cwdAbs,
		StartedAt:  now,
		FinishedAt: now,
		Tallies:    []domain.BucketTally{},
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(fsys afero.Fs, dest string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(fsys, dest, "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	// 这几行用于降低“完成后不知道产物在哪”的摩擦，且不影响 stdout JSON 契约。
	if w == nil || eff.Dest == "" {
		return
	}
	if eff.Mode == domain.ModeOrganize {
		fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.Dest, "report.json"))
		fmt.Fprintf(w, "log: %s\n", filepath.Join(eff.Dest, logName(eff)))
	}
	fmt.Fprintf(w, "dest: %s\n", eff.Dest)
}

func logName(eff config.EffectiveConfig) string {
	if strings.TrimSpace(eff.LogName) != "" {
		return eff.LogName
	}
	return auditlog.DefaultName
}
