//go:build !unix

package fsx

// 非 unix 平台：不识别跨文件系统错误，rename 失败直接上抛。
func isEXDEV(err error) bool { return false }
