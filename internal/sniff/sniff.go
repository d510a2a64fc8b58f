// Package sniff 负责内容签名探测与类别判定。
//
// 约束（硬契约）：
// - 判定完全基于内容签名，绝不回退到扩展名嗅探
// - Classify 对任意输入字符串都是全函数：不认识的签名退化为 Other，永不报错
package sniff

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/John-Robertt/mediorg/internal/domain"
)

// rawSignatures 是相机 RAW 容器的签名集合。
// 这些格式必须判定为 Photo，其中一部分探测器不带 image/ 前缀
// （所以不能只靠 image/* 前缀匹配）。
var rawSignatures = map[string]struct{}{
	"image/x-canon-cr2":     {},
	"image/x-canon-cr3":     {},
	"image/x-nikon-nef":     {},
	"image/x-sony-arw":      {},
	"image/x-fuji-raf":      {},
	"image/x-fujifilm-raf":  {},
	"image/x-olympus-orf":   {},
	"image/x-panasonic-rw2": {},
	"image/x-adobe-dng":     {},
	"image/x-sigma-x3f":     {},

	// 一些探测器把 RAW 归到 application/ 下。
	"application/x-canon-cr2": {},
	"application/x-nikon-nef": {},
	"application/x-sony-arw":  {},
	"application/x-adobe-dng": {},
}

// Detect 读取文件头并返回内容签名字符串（MIME 形态，如 "image/jpeg"）。
// 这是 sniff 包里唯一会触碰文件系统的函数。
func Detect(fsys afero.Fs, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// Classify 把签名字符串映射为类别。纯函数，无副作用，永不失败。
func Classify(signature string) domain.Kind {
	sig := normalize(signature)
	if sig == "" {
		return domain.KindOther
	}
	if _, ok := rawSignatures[sig]; ok {
		return domain.KindPhoto
	}
	if strings.HasPrefix(sig, "image/") {
		return domain.KindPhoto
	}
	if strings.HasPrefix(sig, "video/") {
		return domain.KindVideo
	}
	return domain.KindOther
}

// normalize 去掉参数部分（例如 "text/plain; charset=utf-8"）并统一小写。
func normalize(signature string) string {
	sig := strings.TrimSpace(signature)
	if i := strings.IndexByte(sig, ';'); i >= 0 {
		sig = sig[:i]
	}
	return strings.ToLower(strings.TrimSpace(sig))
}
