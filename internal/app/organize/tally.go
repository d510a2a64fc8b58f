package organize

import (
	"github.com/John-Robertt/mediorg/internal/domain"
)

// noExt 是无扩展名文件在统计里的占位键。
const noExt = ".no_ext"

// tallies 累积分桶统计。分桶顺序固定（Photos/Videos/NonMedia），
// by_ext 的排序交给 RunReport.Finalize。
type tallies struct {
	order  []string
	byName map[string]*domain.BucketTally
	extIdx map[string]map[string]int
	sum    domain.ReportSummary
}

func newTallies() *tallies {
	t := &tallies{
		order:  []string{domain.BucketPhotos, domain.BucketVideos, domain.BucketNonMedia},
		byName: make(map[string]*domain.BucketTally, 3),
		extIdx: make(map[string]map[string]int, 3),
	}
	for _, name := range t.order {
		t.byName[name] = &domain.BucketTally{Bucket: name, ByExt: []domain.ExtTally{}}
		t.extIdx[name] = make(map[string]int, 8)
	}
	return t
}

func (t *tallies) add(f domain.MediaFile) {
	t.sum.Scanned++

	bucket := domain.BucketNonMedia
	switch f.Kind {
	case domain.KindPhoto:
		bucket = domain.BucketPhotos
		t.sum.Photos++
	case domain.KindVideo:
		bucket = domain.BucketVideos
		t.sum.Videos++
	default:
		t.sum.Other++
	}
	if f.Kind != domain.KindOther && !f.Taken.Known {
		t.sum.UnknownDate++
	}

	b := t.byName[bucket]
	b.Files++
	b.Bytes += f.Size

	ext := f.Ext
	if ext == "" {
		ext = noExt
	}
	idx, ok := t.extIdx[bucket][ext]
	if !ok {
		idx = len(b.ByExt)
		b.ByExt = append(b.ByExt, domain.ExtTally{Ext: ext})
		t.extIdx[bucket][ext] = idx
	}
	b.ByExt[idx].Files++
	b.ByExt[idx].Bytes += f.Size
}

func (t *tallies) summary() domain.ReportSummary { return t.sum }

func (t *tallies) buckets() []domain.BucketTally {
	out := make([]domain.BucketTally, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.byName[name])
	}
	return out
}
