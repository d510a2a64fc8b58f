// Package auditlog 提供 organize 模式下的审计日志。
//
// 约束：
// - 只追加（append-only）：每成功移动一个文件写一行，绝不改写历史
// - report/dry-run 模式绝不打开日志文件（由驱动层保证，这里不做模式判断）
// - 句柄由驱动层独占，run 结束时必须 Close（所有退出路径）
package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DefaultName 是目标根目录下审计日志的默认文件名。
const DefaultName = "organization_log.txt"

// Store 是一次 run 的审计日志写入器。
type Store struct {
	f     afero.File
	runID string
}

// Open 在 destRoot 下以追加模式打开（必要时创建）审计日志。
func Open(fsys afero.Fs, destRoot, name, runID string) (*Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	// 日志名不允许携带路径段（避免写到目标根目录之外）。
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("非法日志文件名：%q", name)
	}

	if err := fsys.MkdirAll(destRoot, 0o755); err != nil {
		return nil, err
	}
	f, err := fsys.OpenFile(filepath.Join(destRoot, name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Store{f: f, runID: runID}, nil
}

// Append 写入一条移动记录：时间（UTC RFC3339）、run ID、源、目标，制表符分隔。
func (s *Store) Append(srcAbs, dstAbs string, at time.Time) error {
	line := fmt.Sprintf("%s\t%s\t%s\t%s\n", at.UTC().Format(time.RFC3339), s.runID, srcAbs, dstAbs)
	_, err := s.f.WriteString(line)
	return err
}

// Close 落盘并关闭句柄。Sync 失败不掩盖 Close 的结果。
func (s *Store) Close() error {
	_ = s.f.Sync()
	return s.f.Close()
}
