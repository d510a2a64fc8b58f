// Package meta 负责拍摄日期解析。
//
// 约束（硬契约）：Resolve 是全函数——任何读取/解析失败都退化为 Unknown，
// 绝不向调用方抛错；Other 类别直接返回 Unknown，不做任何提取尝试。
package meta

import (
	"math"
	"time"

	mp4 "github.com/abema/go-mp4"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"

	"github.com/John-Robertt/mediorg/internal/domain"
)

// mp4Epoch 是 MP4/QuickTime 容器时间戳的纪元（1904-01-01 UTC）。
var mp4Epoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// sanityFloor 之前的容器时间戳视为未填写（大量编码器写 0 或垃圾值）。
var sanityFloor = time.Date(1971, 1, 1, 0, 0, 0, 0, time.UTC)

// maxMvhdSec 之上的时间戳必然是垃圾：换算为纳秒会溢出 time.Duration，
// 回绕后的乘积可能落在 sanityFloor 之后，必须在乘法之前拒绝。
const maxMvhdSec = uint64(math.MaxInt64 / int64(time.Second))

// Resolve 解析一个文件的拍摄日期。
func Resolve(fsys afero.Fs, f domain.MediaFile) domain.CaptureDate {
	switch f.Kind {
	case domain.KindPhoto:
		return photoDate(fsys, f.AbsPath)
	case domain.KindVideo:
		return videoDate(fsys, f.AbsPath)
	default:
		return domain.CaptureDate{}
	}
}

// photoDate 读取 EXIF 拍摄时间。
// goexif 的 DateTime() 优先取 DateTimeOriginal，缺失时回退 DateTime——
// 正好符合“语义上更具体的字段优先”的取舍。
func photoDate(fsys afero.Fs, path string) domain.CaptureDate {
	f, err := fsys.Open(path)
	if err != nil {
		return domain.CaptureDate{}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return domain.CaptureDate{}
	}
	t, err := x.DateTime()
	if err != nil {
		return domain.CaptureDate{}
	}
	return domain.CaptureDate{Time: t, Known: true}
}

// videoDate 读取 MP4/QuickTime 容器 moov/mvhd 的 creation_time。
// 非 ISO-BMFF 容器（mkv/avi 等）解析不出 mvhd，按 Unknown 处理。
func videoDate(fsys afero.Fs, path string) domain.CaptureDate {
	f, err := fsys.Open(path)
	if err != nil {
		return domain.CaptureDate{}
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil || len(boxes) == 0 {
		return domain.CaptureDate{}
	}
	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return domain.CaptureDate{}
	}

	var sec uint64
	if mvhd.GetVersion() == 0 {
		sec = uint64(mvhd.CreationTimeV0)
	} else {
		sec = mvhd.CreationTimeV1
	}
	if sec == 0 || sec > maxMvhdSec {
		return domain.CaptureDate{}
	}

	t := mp4Epoch.Add(time.Duration(sec) * time.Second)
	if t.Before(sanityFloor) {
		return domain.CaptureDate{}
	}
	return domain.CaptureDate{Time: t, Known: true}
}
