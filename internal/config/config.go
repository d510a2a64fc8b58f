package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 mediorg.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
	// ErrCodeMissingDest 表示 dry-run/organize 模式缺少目标目录。
	ErrCodeMissingDest = "config_missing_dest"
)

// DefaultMode 是模式的最终默认值（当 CLI 与配置文件都未指定时）。
// 给了目标目录且不加任何模式参数 => 真实整理。
const DefaultMode = "organize"

// CLIArgs 只包含 CLI 暴露的入口（path/dest/mode），并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --dry-run 必须能覆盖 config.mode=organize。
type CLIArgs struct {
	Path string

	Dest    string
	DestSet bool

	Mode    string
	ModeSet bool
}

// FileConfig 对应 mediorg.json 的解析结构。
type FileConfig struct {
	Path        string   `json:"path"`
	Dest        string   `json:"dest"`
	Mode        string   `json:"mode"`
	ExcludeDirs []string `json:"exclude_dirs"`
	LogName     string   `json:"log_name"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string // 扫描根目录（clean + absolute）
	Dest string // 目标根目录（clean + absolute；report 模式可为空）
	Mode string // report | dry-run | organize

	ExcludeDirs []string
	LogName     string // 审计日志文件名（仅文件名，不含路径段）
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeMissingDest:
		return fmt.Sprintf("%s：dry-run/organize 模式必须提供目标目录（--dest 或配置文件 dest）", e.Code)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置无效：%v", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：配置无效", e.Code)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按约定发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/mediorg.json（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/mediorg.json（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：
// - path：CLI path > config path
// - dest：CLI --dest > config dest
// - mode：CLI > config > 默认 organize
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		// CLI 给了 path：配置文件可选，位置固定在 <path>/mediorg.json。
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, "mediorg.json")

		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(cwdAbs, absPath, cli, fc)
	}

	// CLI 没给 path：必须读取 <cwd>/mediorg.json，且其中必须包含 path。
	cfgPath := filepath.Join(cwdAbs, "mediorg.json")
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath := absCleanFrom(cwdAbs, fc.Path)
	return merge(cwdAbs, absPath, cli, fc)
}

func merge(cwdAbs, absPath string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	// mode：CLI > config > 默认
	mode := DefaultMode
	if cli.ModeSet {
		mode = cli.Mode
	} else if strings.TrimSpace(fc.Mode) != "" {
		mode = fc.Mode
	}
	if err := validateMode(mode); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: err}
	}

	// dest：CLI > config。report 模式不需要。
	dest := strings.TrimSpace(fc.Dest)
	if cli.DestSet {
		dest = strings.TrimSpace(cli.Dest)
	}
	if dest != "" {
		dest = absCleanFrom(cwdAbs, dest)
	}
	if mode != "report" && dest == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingDest}
	}
	if dest != "" && dest == absPath {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: fmt.Errorf("源目录与目标目录不能相同：%q", dest)}
	}

	logName := strings.TrimSpace(fc.LogName)
	if logName != "" && logName != filepath.Base(logName) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: fmt.Errorf("log_name 只能是文件名：%q", logName)}
	}

	return EffectiveConfig{
		Path:        absPath,
		Dest:        dest,
		Mode:        mode,
		ExcludeDirs: append([]string(nil), fc.ExcludeDirs...),
		LogName:     logName,
	}, nil
}

func validateMode(m string) error {
	switch m {
	case "report", "dry-run", "organize":
		return nil
	case "":
		return fmt.Errorf("mode 不能为空")
	default:
		return fmt.Errorf("mode 只能是 report、dry-run 或 organize，实际是 %q", m)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
