// 包 cli 基于 cobra 组装命令行：validate/audit/register/history/version。
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-og-audit/internal/clierr"
	"go-og-audit/internal/config"
	"go-og-audit/internal/fetch"
	"go-og-audit/internal/logx"
	"go-og-audit/internal/metrics"
)

// rootOptions 为全局 flag。
type rootOptions struct {
	configPath string
	inventory  string
	verbose    bool
}

// NewRootCmd 构造根命令。
func NewRootCmd() *cobra.Command {
	version := os.Getenv("OG_AUDIT_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "og-audit",
		Short:         "Validate Open Graph tags of a page or a whole site",
		Long:          "og-audit scores the social preview metadata of web pages and keeps an inventory of audited pages.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", config.DefaultPath, "path to og-audit.yaml (optional)")
	cmd.PersistentFlags().StringVar(&o.inventory, "inventory", "", "inventory file path (overrides INVENTORY)")
	cmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of og-audit",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "og-audit version %s\n", version)
		},
	})
	cmd.AddCommand(newValidateCmd(o))
	cmd.AddCommand(newAuditCmd(o))
	cmd.AddCommand(newRegisterCmd(o))
	cmd.AddCommand(newHistoryCmd(o))
	return cmd
}

// env 为一次命令执行所需的运行环境。
type env struct {
	cfg    *config.Config
	client *fetch.Client
	stop   context.CancelFunc
}

// setup 加载配置、初始化日志与 HTTP 客户端，并按需启动指标服务。
// 日志写入 stderr，stdout 只留给命令结果。
func (o *rootOptions) setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfig, "load config", err)
	}
	if o.inventory != "" {
		cfg.Inventory = o.inventory
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	logx.Init(logx.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Locale: cfg.LogLocale,
		Color:  cfg.LogColor,
		File:   cfg.LogFile,
		Writer: cmd.ErrOrStderr(),
	})

	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.Timeout,
		Retry:      cfg.Retry,
		UserAgent:  cfg.UserAgent,
	})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfig, "http client", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	if cfg.MetricsAddr != "" {
		go metrics.Serve(ctx, cfg.MetricsAddr)
	}
	return &env{cfg: cfg, client: cl, stop: cancel}, nil
}

func (e *env) close() {
	e.stop()
	_ = logx.Close()
}
