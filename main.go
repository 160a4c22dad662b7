// 命令行入口：组装 cobra 命令并按错误携带的退出码退出。
// - validate <url>：单页校验，得分低于阈值时退出码为 2
// - audit <site>：整站审计并写出清单，写出成功即退出码 0
package main

import (
	"fmt"
	"os"

	"go-og-audit/internal/cli"
	"go-og-audit/internal/clierr"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
