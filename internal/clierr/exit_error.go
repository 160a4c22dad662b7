// 包 clierr 定义携带进程退出码的错误，main 只需调用 ExitCodeOf。
package clierr

import (
	"errors"
	"fmt"
)

// 约定的退出码。
const (
	CodeError     = 1 // 一般错误
	CodeBelowPass = 2 // 单页得分低于阈值
	CodeConfig    = 3 // 配置无法加载或不完整
)

// ExitError 为带退出码的错误；cause 可经 errors.Is/As 取到。
type ExitError struct {
	Code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *ExitError) Unwrap() error { return e.cause }

// New 创建 ExitError；code<=0 时记为 CodeError。
func New(code int, msg string) error {
	return &ExitError{Code: normalize(code), msg: msg}
}

// Newf 为格式化版本。
func Newf(code int, format string, args ...any) error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 以 msg 包裹 cause；cause 为 nil 时返回 nil。
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return nil
	}
	return &ExitError{Code: normalize(code), msg: msg, cause: cause}
}

// ExitCodeOf 从错误链中提取退出码：nil 为 0，未携带退出码的错误为 CodeError。
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return CodeError
}

func normalize(code int) int {
	if code <= 0 {
		return CodeError
	}
	return code
}
