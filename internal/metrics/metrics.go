// 包 metrics 定义 Prometheus 指标，并可选在 /metrics 暴露。
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-og-audit/internal/logx"
)

var (
	Validations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogaudit_validations_total",
			Help: "Total number of page validations, labeled by outcome (scored, unreachable, error).",
		},
		[]string{"outcome"},
	)
	PageScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ogaudit_page_score",
			Help:    "Distribution of page scores (0-100).",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	CheckStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogaudit_checks_total",
			Help: "Total number of validation checks, labeled by check name and status.",
		},
		[]string{"check", "status"},
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogaudit_fetch_errors_total",
			Help: "Total number of failed HTTP fetches, labeled by kind.",
		},
		[]string{"kind"},
	)
	AuditDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ogaudit_audit_duration_seconds",
			Help:    "Duration of whole-site audits in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(Validations)
	prometheus.MustRegister(PageScore)
	prometheus.MustRegister(CheckStatus)
	prometheus.MustRegister(FetchErrors)
	prometheus.MustRegister(AuditDuration)
}

// Serve 在 addr 上暴露 /metrics，直到 ctx 被取消。
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logx.Infof("指标服务监听：%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Errorf("指标服务启动失败：%v", err)
	}
}
