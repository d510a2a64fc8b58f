package planner

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/mediorg/internal/domain"
)

func photo(rel string, taken domain.CaptureDate) domain.MediaFile {
	return domain.MediaFile{RelPath: rel, Kind: domain.KindPhoto, Taken: taken}
}

func known(y int, m time.Month, d int) domain.CaptureDate {
	return domain.CaptureDate{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Known: true}
}

func TestPlanDest_PhotoWithDate(t *testing.T) {
	got := PlanDest(photo("trip/IMG_1.jpg", known(2023, time.June, 15)))
	want := filepath.Join("Photos", "2023", "06", "IMG_1.jpg")
	if got.RelDst != want || got.Bucket != domain.BucketPhotos {
		t.Fatalf("期望 %q，实际 %+v", want, got)
	}
}

func TestPlanDest_VideoUnknownDate(t *testing.T) {
	got := PlanDest(domain.MediaFile{RelPath: "clips/a.mp4", Kind: domain.KindVideo})
	want := filepath.Join("UnknownDate", "Videos", "a.mp4")
	if got.RelDst != want {
		t.Fatalf("期望 %q，实际 %q", want, got.RelDst)
	}
}

func TestPlanDest_NonMediaPreservesStructure(t *testing.T) {
	got := PlanDest(domain.MediaFile{RelPath: filepath.Join("invoices", "2021", "report.pdf"), Kind: domain.KindOther})
	want := filepath.Join("NonMedia", "invoices", "2021", "report.pdf")
	if got.RelDst != want {
		t.Fatalf("期望 %q，实际 %q", want, got.RelDst)
	}
}

func TestPlanDest_MalformedRelNeverEscapes(t *testing.T) {
	cases := []string{
		filepath.Join("..", "..", "etc", "passwd"),
		"..",
		string(filepath.Separator) + filepath.Join("abs", "x.bin"),
	}
	for _, rel := range cases {
		got := PlanDest(domain.MediaFile{RelPath: rel, Kind: domain.KindOther})
		clean := filepath.Clean(got.RelDst)
		if filepath.IsAbs(clean) || clean == ".." || len(clean) >= 3 && clean[:3] == ".."+string(filepath.Separator) {
			t.Fatalf("规划逃出目标根目录：%q -> %q", rel, got.RelDst)
		}
	}
}

func TestPlanDest_Pure(t *testing.T) {
	f := photo("a/b.jpg", known(2020, time.January, 2))
	if PlanDest(f) != PlanDest(f) {
		t.Fatalf("相同输入必须得到相同规划")
	}
}

type fakeProbe map[string]struct{}

func (p fakeProbe) Exists(rel string) bool { _, ok := p[rel]; return ok }

func TestAllocName_NoConflictKeepsName(t *testing.T) {
	claimed := map[string]struct{}{}
	plan := domain.DestPlan{Bucket: domain.BucketPhotos, RelDst: filepath.Join("Photos", "2022", "03", "a.jpg")}

	got := AllocName(plan, known(2022, time.March, 10), claimed, nil, time.Now())
	if got.RelDst != plan.RelDst {
		t.Fatalf("无冲突时不应改名：%q", got.RelDst)
	}
	if _, ok := claimed[got.RelDst]; !ok {
		t.Fatalf("最终路径必须记入 claimed")
	}
}

func TestAllocName_InRunCollisionLaw(t *testing.T) {
	// 冲突律：N 个文件规划到同一路径，必须得到 N 个互不相同的最终路径。
	const n = 25
	claimed := map[string]struct{}{}
	plan := domain.DestPlan{Bucket: domain.BucketPhotos, RelDst: filepath.Join("UnknownDate", "Photos", "a.jpg")}
	fallback := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	seen := map[string]struct{}{}
	for i := 0; i < n; i++ {
		got := AllocName(plan, domain.CaptureDate{}, claimed, nil, fallback)
		if _, dup := seen[got.RelDst]; dup {
			t.Fatalf("第 %d 个文件得到重复路径：%q", i, got.RelDst)
		}
		seen[got.RelDst] = struct{}{}
	}
	// 第一个保留原名，其余按计数器展开。
	want2 := filepath.Join("UnknownDate", "Photos", "a_20240501_1.jpg")
	if _, ok := seen[want2]; !ok {
		t.Fatalf("期望出现 %q，实际：%v", want2, seen)
	}
}

func TestAllocName_DiskCollisionUsesCaptureDateStamp(t *testing.T) {
	claimed := map[string]struct{}{}
	rel := filepath.Join("Photos", "2022", "03", "a.jpg")
	probe := fakeProbe{
		rel: {},
		filepath.Join("Photos", "2022", "03", "a_20220310_1.jpg"): {},
	}

	got := AllocName(domain.DestPlan{Bucket: domain.BucketPhotos, RelDst: rel},
		known(2022, time.March, 10), claimed, probe, time.Now())
	want := filepath.Join("Photos", "2022", "03", "a_20220310_2.jpg")
	if got.RelDst != want {
		t.Fatalf("期望 %q，实际 %q", want, got.RelDst)
	}
}

func TestAllocName_Deterministic(t *testing.T) {
	fallback := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	run := func() []string {
		claimed := map[string]struct{}{}
		out := make([]string, 0, 5)
		for i := 0; i < 5; i++ {
			p := AllocName(domain.DestPlan{RelDst: "NonMedia/x.bin"}, domain.CaptureDate{}, claimed, nil, fallback)
			out = append(out, p.RelDst)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("相同输入序列必须得到相同命名：%v vs %v", a, b)
		}
	}
}
