package domain

import "time"

// Kind 是文件的内容类别，由内容签名判定（与扩展名无关）。
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
	KindOther Kind = "other"
)

// MediaFile 描述一次扫描得到的文件（扫描阶段只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Signature/Kind/Taken 由后续阶段填充，且每个字段只赋值一次
// - 记录严格顺序处理：上一个文件完全解决后才开始下一个
type MediaFile struct {
	AbsPath string
	RelPath string
	Ext     string // ".jpg"（小写；无扩展名为 ""）
	Size    int64

	Signature string // 内容签名（MIME 形态），每条记录只探测一次
	Kind      Kind
	Taken     CaptureDate
}

// CaptureDate 是拍摄日期的解析结果。
//
// Known=false 是显式的“未知”哨兵：绝不能退化为某个默认日期
// （例如 epoch），必须路由到 UnknownDate 分支。
type CaptureDate struct {
	Time  time.Time
	Known bool
}

// Year 返回四位年份；仅在 Known 时有意义。
func (d CaptureDate) Year() int { return d.Time.Year() }

// Month 返回月份；仅在 Known 时有意义。
func (d CaptureDate) Month() time.Month { return d.Time.Month() }
