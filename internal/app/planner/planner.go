// Package planner 负责路径规划与冲突安全命名。
//
// PlanDest 是纯函数：相同输入永远得到相同规划，不触碰文件系统。
// AllocName 是防覆盖的唯一机制：已认领集合 + 磁盘探测，二者都不命中才放行。
package planner

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/mediorg/internal/domain"
)

// Prober 探测目标根目录下某个相对路径是否已被磁盘上的文件占用。
// report/dry-run 模式可传 nil（视为“磁盘上什么都不存在”或由调用方给只读探测）。
type Prober interface {
	Exists(relDst string) bool
}

// PlanDest 计算一个文件的目标落点（冲突解决在 AllocName，这一步文件名保持原样）。
//
// - Other           => NonMedia/<源相对子目录>/<文件名>（保留原始相对结构）
// - 媒体 + 已知日期  => Photos|Videos/<年>/<补零月>/<文件名>
// - 媒体 + 未知日期  => UnknownDate/<Photos|Videos>/<文件名>
func PlanDest(f domain.MediaFile) domain.DestPlan {
	name := filepath.Base(f.RelPath)

	switch f.Kind {
	case domain.KindPhoto, domain.KindVideo:
		bucket := domain.BucketPhotos
		if f.Kind == domain.KindVideo {
			bucket = domain.BucketVideos
		}
		if !f.Taken.Known {
			return domain.DestPlan{
				Bucket: bucket,
				RelDst: filepath.Join(domain.BucketUnknownDate, bucket, name),
			}
		}
		return domain.DestPlan{
			Bucket: bucket,
			RelDst: filepath.Join(bucket,
				fmt.Sprintf("%04d", f.Taken.Year()),
				fmt.Sprintf("%02d", int(f.Taken.Month())),
				name),
		}
	default:
		return domain.DestPlan{
			Bucket: domain.BucketNonMedia,
			RelDst: filepath.Join(domain.BucketNonMedia, sanitizeRel(f.RelPath)),
		}
	}
}

// AllocName 把规划落点确定为最终落点：
// 冲突时在扩展名前插入 _<yyyymmdd>_<计数器>（时间取拍摄日期，未知则取 fallback，
// 通常是 run 的开始时间），计数器从 1 递增直到无冲突。
//
// 保证：返回的路径一定不在 claimed 中；有 probe 时也一定不在磁盘上。
// 返回前会把最终路径记入 claimed。
func AllocName(plan domain.DestPlan, taken domain.CaptureDate, claimed map[string]struct{}, probe Prober, fallback time.Time) domain.DestPlan {
	if free(plan.RelDst, claimed, probe) {
		claimed[plan.RelDst] = struct{}{}
		return plan
	}

	dir := filepath.Dir(plan.RelDst)
	name := filepath.Base(plan.RelDst)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	stamp := fallback
	if taken.Known {
		stamp = taken.Time
	}
	date := stamp.Format("20060102")

	for n := 1; ; n++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s_%s_%d%s", base, date, n, ext))
		if free(cand, claimed, probe) {
			claimed[cand] = struct{}{}
			plan.RelDst = cand
			return plan
		}
	}
}

func free(rel string, claimed map[string]struct{}, probe Prober) bool {
	if _, ok := claimed[rel]; ok {
		return false
	}
	if probe != nil && probe.Exists(rel) {
		return false
	}
	return true
}

// sanitizeRel 防止畸形相对路径把规划带出目标根目录：
// clean 之后仍含 ".." 前缀或是绝对路径的，剥离为纯文件名。
func sanitizeRel(rel string) string {
	rel = filepath.Clean(rel)
	if rel == "." || rel == "" {
		return rel
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(rel)
	}
	return rel
}
