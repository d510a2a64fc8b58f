package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// 通过可替换的函数指针，让测试能稳定模拟 EXDEV 等错误。
var renameFunc = func(fsys afero.Fs, src, dst string) error { return fsys.Rename(src, dst) }

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// Move 把 src 移动到 dst。
//
// 契约（硬约束）：
// - dst 已存在 => os.ErrExist（目录则 PathTypeConflictError）。覆盖已有文件
//   在结构上不可能发生：命名层保证不产生冲突路径，这里是最后一道闸。
// - 跨盘（EXDEV）时回退为 copy + fsync + delete（与底层 move 语义对齐；
//   不提供跨盘原子性保证）
func Move(fsys afero.Fs, src, dst string) error {
	if fi, err := lstat(fsys, dst); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
		}
		return os.ErrExist
	} else if !os.IsNotExist(err) {
		return err
	}

	err := renameFunc(fsys, src, dst)
	if err == nil {
		return nil
	}
	if !isEXDEV(err) {
		return err
	}
	return copyThenDelete(fsys, src, dst)
}

func copyThenDelete(fsys afero.Fs, src, dst string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// O_EXCL：与 Move 的不覆盖契约保持一致（stat 与写入之间的窗口也要守住）。
	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = fsys.Remove(dst)
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = fsys.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = fsys.Remove(dst)
		return err
	}

	// 副本已落盘，删除源文件。删除失败不回滚副本（宁可重复，不可丢失）。
	return fsys.Remove(src)
}

// WriteFileAtomicReplace 在 dir 下原子写入 name（临时文件 + rename），覆盖同名文件。
// 用于 report.json 等内部产物；媒体文件的移动必须走 Move（不覆盖）。
func WriteFileAtomicReplace(fsys afero.Fs, dir, name string, data []byte) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'，避免污染目标目录视图）。
	tmp, err := afero.TempFile(fsys, dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := renameFunc(fsys, tmpName, dst); err == nil {
		return nil
	}
	// 部分后端（MemMapFs/Windows）对覆盖式 rename 支持不完整：退化为先删后改名。
	if err := fsys.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return renameFunc(fsys, tmpName, dst)
}

func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if lr, ok := fsys.(afero.Lstater); ok {
		fi, _, err := lr.LstatIfPossible(path)
		return fi, err
	}
	return fsys.Stat(path)
}
