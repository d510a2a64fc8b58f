package domain

import (
	"sort"
	"time"
)

// 运行模式：启动时确定一次，整个 run 不变。
const (
	ModeReport   = "report"
	ModeDryRun   = "dry-run"
	ModeOrganize = "organize"
)

// 条目状态。
const (
	StatusPlanned = "planned" // dry-run：只规划，不落盘
	StatusMoved   = "moved"   // organize：移动成功
	StatusFailed  = "failed"  // organize：移动失败（单条失败不影响其他）
)

// 错误码（对外稳定；新增允许，改名/删除不允许）。
const (
	ErrCodeSourceUnreadable  = "source_unreadable"
	ErrCodeDestUnwritable    = "dest_unwritable"
	ErrCodeSniffFailed       = "sniff_failed" // 非致命：该文件按 Other 处理
	ErrCodeMoveFailed        = "move_failed"
	ErrCodeLogFailed         = "log_failed"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
	ErrCodeConfigMissingDest = "config_missing_dest"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	RunID  string `json:"run_id"`
	Mode   string `json:"mode"`
	Source string `json:"source"`
	Dest   string `json:"dest,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Tallies []BucketTally `json:"tallies"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Scanned     int `json:"scanned"`
	Photos      int `json:"photos"`
	Videos      int `json:"videos"`
	Other       int `json:"other"`
	UnknownDate int `json:"unknown_date"`
	Moved       int `json:"moved"`
	Failed      int `json:"failed"`
}

// BucketTally 是按分桶的统计（report 模式的主输出；其他模式也一并给出）。
type BucketTally struct {
	Bucket string     `json:"bucket"` // Photos | Videos | NonMedia
	Files  int        `json:"files"`
	Bytes  int64      `json:"bytes"`
	ByExt  []ExtTally `json:"by_ext"`
}

// ExtTally 按扩展名细分（无扩展名的文件计入 ".no_ext"）。
type ExtTally struct {
	Ext   string `json:"ext"`
	Files int    `json:"files"`
	Bytes int64  `json:"bytes"`
}

// ItemResult 是单个文件的处理结果（report 模式不产出条目，只产出 tallies）。
type ItemResult struct {
	Src       string `json:"src"` // 相对 source
	Dst       string `json:"dst"` // 相对 dest；失败时仍给出规划的落点
	Kind      string `json:"kind"`
	Bucket    string `json:"bucket"`
	Signature string `json:"signature"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 src 字典序；src=="" 的合成条目（run 级失败）排在最后
// 3) summary 的 moved/failed 由 items 计算得出
//
// tallies 的顺序由驱动层保证（Photos/Videos/NonMedia 固定顺序），
// Finalize 只对 by_ext 做稳定排序：files 降序，同数则 ext 字典序。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Src
		b := r.Items[j].Src
		if a == "" && b == "" {
			return false
		}
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	for t := range r.Tallies {
		byExt := r.Tallies[t].ByExt
		sort.SliceStable(byExt, func(i, j int) bool {
			if byExt[i].Files != byExt[j].Files {
				return byExt[i].Files > byExt[j].Files
			}
			return byExt[i].Ext < byExt[j].Ext
		})
	}

	r.Summary.Moved = 0
	r.Summary.Failed = 0
	for _, it := range r.Items {
		switch it.Status {
		case StatusMoved:
			r.Summary.Moved++
		case StatusFailed:
			r.Summary.Failed++
		}
	}
}
