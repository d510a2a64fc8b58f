package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		RunID:      "run-1",
		Mode:       ModeOrganize,
		Source:     "/abs/src",
		Dest:       "/abs/dst",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Items: []ItemResult{
			{Src: "b/2.jpg", Status: StatusMoved},
			{Src: "", Status: StatusFailed}, // run 级失败的合成条目
			{Src: "a/1.jpg", Status: StatusMoved},
			{Src: "c.txt", Status: StatusFailed},
		},
		Tallies: []BucketTally{
			{Bucket: BucketPhotos, ByExt: []ExtTally{
				{Ext: ".png", Files: 1},
				{Ext: ".jpg", Files: 3},
				{Ext: ".gif", Files: 1},
			}},
		},
	}

	r.Finalize()

	// src=="" 必须排在最后；其余按字典序。
	got := []string{r.Items[0].Src, r.Items[1].Src, r.Items[2].Src, r.Items[3].Src}
	want := []string{"a/1.jpg", "b/2.jpg", "c.txt", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items 排序不符合契约：%v", got)
		}
	}
	if r.Summary.Moved != 2 || r.Summary.Failed != 2 {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}

	// by_ext：files 降序，同数按 ext 字典序。
	byExt := r.Tallies[0].ByExt
	if byExt[0].Ext != ".jpg" || byExt[1].Ext != ".gif" || byExt[2].Ext != ".png" {
		t.Fatalf("by_ext 排序不符合契约：%+v", byExt)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}

func TestCaptureDate_UnknownIsExplicit(t *testing.T) {
	var d CaptureDate
	if d.Known {
		t.Fatalf("零值必须是 Unknown")
	}
	// Unknown 不允许被当作 epoch 日期使用；Year/Month 仅在 Known 时有意义，
	// 这里只确认零值不会伪装成一个“看起来合法”的已知日期。
	if d.Known && d.Year() == 1 {
		t.Fatalf("Unknown 被错误地当作日期消费")
	}
}
