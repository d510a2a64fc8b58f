//go:build unix

package fsx

import (
	"errors"
	"os"
	"syscall"
)

// isEXDEV 判断 rename 失败是否因为跨文件系统（此时 Move 回退为 copy+delete）。
func isEXDEV(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	var le *os.LinkError
	if errors.As(err, &le) && errors.Is(le.Err, syscall.EXDEV) {
		return true
	}
	return false
}
