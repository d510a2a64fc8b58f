// Package organize 是三种模式共用的驱动：
// 逐个文件跑完 分类 -> 日期解析 -> 路径规划 -> 冲突命名 ->（organize 模式）移动。
//
// 执行严格串行：上一个文件完全解决后才开始下一个。
// 这正是“已认领集合无需加锁即可保证冲突安全”的前提。
package organize

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/John-Robertt/mediorg/internal/app/planner"
	"github.com/John-Robertt/mediorg/internal/config"
	"github.com/John-Robertt/mediorg/internal/domain"
	"github.com/John-Robertt/mediorg/internal/infra/auditlog"
	"github.com/John-Robertt/mediorg/internal/infra/fsx"
	"github.com/John-Robertt/mediorg/internal/meta"
	"github.com/John-Robertt/mediorg/internal/scan"
	"github.com/John-Robertt/mediorg/internal/sniff"
)

// Pipeline 汇集驱动依赖。探测/解析以函数注入，便于测试替换；
// 生产路径一律走 New 的默认装配。
type Pipeline struct {
	Fs       afero.Fs
	Detect   func(afero.Fs, string) (string, error)
	Resolve  func(afero.Fs, domain.MediaFile) domain.CaptureDate
	Now      func() time.Time
	NewRunID func() string
}

// New 返回默认装配的 Pipeline（真实文件系统 + sniff/meta）。
func New(fsys afero.Fs) Pipeline {
	return Pipeline{
		Fs:       fsys,
		Detect:   sniff.Detect,
		Resolve:  meta.Resolve,
		Now:      time.Now,
		NewRunID: func() string { return uuid.NewString() },
	}
}

// Execute 执行一次 run，并返回对外稳定的 RunReport。
// run 级失败（源不可读、目标不可建、日志打不开）产出合成 failed 条目并立即结束；
// 文件级失败只影响该文件，run 继续。
func (p Pipeline) Execute(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	started := p.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		RunID:     p.NewRunID(),
		Mode:      eff.Mode,
		Source:    eff.Path,
		Dest:      eff.Dest,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 128),
	}

	finish := func() domain.RunReport {
		rr.FinishedAt = p.Now().UTC()
		rr.Finalize()
		return rr
	}

	if fi, err := p.Fs.Stat(eff.Path); err != nil {
		rr.Items = append(rr.Items, synthetic(domain.ErrCodeSourceUnreadable, fmt.Sprintf("源目录不可读：%v", err)))
		return finish()
	} else if !fi.IsDir() {
		rr.Items = append(rr.Items, synthetic(domain.ErrCodeSourceUnreadable, fmt.Sprintf("源路径不是目录：%q", eff.Path)))
		return finish()
	}

	logName := eff.LogName
	if logName == "" {
		logName = auditlog.DefaultName
	}

	// 只有 organize 模式创建目标根目录；report/dry-run 对文件系统完全只读。
	if eff.Mode == domain.ModeOrganize {
		if err := p.Fs.MkdirAll(eff.Dest, 0o755); err != nil {
			rr.Items = append(rr.Items, synthetic(domain.ErrCodeDestUnwritable, fmt.Sprintf("目标目录不可创建：%v", err)))
			return finish()
		}
	}

	scanStarted := time.Now()
	files, err := scan.Scan(p.Fs, eff.Path, eff.Dest, eff.ExcludeDirs, logName)
	if err != nil {
		rr.Items = append(rr.Items, synthetic(domain.ErrCodeSourceUnreadable, fmt.Sprintf("扫描失败：%v", err)))
		return finish()
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"files": len(files)}, time.Since(scanStarted))
	}

	// 审计日志只在 organize 模式打开；report/dry-run 绝不落盘。
	var store *auditlog.Store
	if eff.Mode == domain.ModeOrganize {
		store, err = auditlog.Open(p.Fs, eff.Dest, logName, rr.RunID)
		if err != nil {
			rr.Items = append(rr.Items, synthetic(domain.ErrCodeLogFailed, fmt.Sprintf("打开审计日志失败：%v", err)))
			return finish()
		}
		defer store.Close()
	}

	// 磁盘探测：report 模式关闭；dry-run 只读不写，探测的是 run 开始时的既有状态。
	var probe planner.Prober
	if eff.Mode != domain.ModeReport {
		probe = fsProbe{fsys: p.Fs, root: eff.Dest}
	}

	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{"mode": eff.Mode, "total": len(files)}, 0)
	}

	tal := newTallies()
	claimed := make(map[string]struct{}, len(files))

	for i := range files {
		if ctx.Err() != nil {
			break
		}
		oneStarted := time.Now()

		f := files[i]
		// 读头失败（权限等）：签名留空 => Other。非致命，只在条目上记录错误码。
		sig, detectErr := p.Detect(p.Fs, f.AbsPath)
		if detectErr == nil {
			f.Signature = sig
		}
		f.Kind = sniff.Classify(f.Signature)
		f.Taken = p.Resolve(p.Fs, f)
		tal.add(f)

		if eff.Mode == domain.ModeReport {
			continue
		}

		plan := planner.PlanDest(f)
		plan = planner.AllocName(plan, f.Taken, claimed, probe, started)

		item := domain.ItemResult{
			Src:       f.RelPath,
			Dst:       plan.RelDst,
			Kind:      string(f.Kind),
			Bucket:    plan.Bucket,
			Signature: f.Signature,
			Status:    domain.StatusPlanned,
		}
		if detectErr != nil {
			item.ErrorCode = domain.ErrCodeSniffFailed
			item.ErrorMsg = fmt.Sprintf("读取文件头失败：%v", detectErr)
		}

		if eff.Mode == domain.ModeOrganize {
			p.moveOne(&item, f, plan, eff.Dest, store)
		}

		rr.Items = append(rr.Items, item)
		if obs != nil {
			obs.OnItemDone(len(rr.Items), len(files), item, time.Since(oneStarted))
		}
	}

	rr.Summary = tal.summary()
	rr.Tallies = tal.buckets()
	return finish()
}

// moveOne 执行单个文件的真实移动，并写一行审计日志。失败只标记该条目。
func (p Pipeline) moveOne(item *domain.ItemResult, f domain.MediaFile, plan domain.DestPlan, destRoot string, store *auditlog.Store) {
	dstAbs := filepath.Join(destRoot, plan.RelDst)

	if err := p.Fs.MkdirAll(filepath.Dir(dstAbs), 0o755); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeMoveFailed
		item.ErrorMsg = fmt.Sprintf("创建目标目录失败：%v", err)
		return
	}
	if err := fsx.Move(p.Fs, f.AbsPath, dstAbs); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeMoveFailed
		item.ErrorMsg = err.Error()
		return
	}

	item.Status = domain.StatusMoved
	// 文件已安全落位：日志写入异常不改变 moved 状态，但必须让用户看见。
	if err := store.Append(f.AbsPath, dstAbs, p.Now()); err != nil {
		item.ErrorCode = domain.ErrCodeLogFailed
		item.ErrorMsg = fmt.Sprintf("写入审计日志失败：%v", err)
	}
}

func synthetic(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

// fsProbe 探测目标根目录下的既有文件。只 Stat，不做任何写入。
type fsProbe struct {
	fsys afero.Fs
	root string
}

func (p fsProbe) Exists(rel string) bool {
	_, err := p.fsys.Stat(filepath.Join(p.root, rel))
	return err == nil
}
