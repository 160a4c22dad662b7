package audit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter 在未发现任何页面时向用户询问待审计路径。
type Prompter interface {
	PromptPaths(ctx context.Context) ([]string, error)
}

// LinePrompter 从 In 读取一行逗号分隔的路径；空输入默认为 "/"。
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

// PromptPaths 输出提示并同步读取一行输入。读取前后都检查 ctx，
// 已取消时不会读取 In；阻塞中的读取需由调用方关闭 In 来打断。
func (p LinePrompter) PromptPaths(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Out != nil {
		fmt.Fprint(p.Out, "No sitemap found. Enter paths to audit (comma-separated) [/]: ")
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParsePaths(line), nil
}

// ParsePaths 拆分逗号分隔的路径并去掉空项；结果为空时返回 ["/"]。
func ParsePaths(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"/"}
	}
	return out
}
