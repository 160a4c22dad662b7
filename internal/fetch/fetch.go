// 包 fetch 封装 HTTP 客户端（标识 UA/代理/超时/重试），用于抓取页面、图片与站点地图。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"go-og-audit/internal/metrics"
)

// DefaultUserAgent 为默认的标识 UA；可通过 Options.UserAgent 或环境变量 OGA_UA 覆盖。
const DefaultUserAgent = "og-audit/1.0 (+https://github.com/og-audit/og-audit)"

// DefaultMaxBody 为单次响应读取上限。
const DefaultMaxBody = 16 << 20

// StatusError 表示服务端返回了非 2xx 状态码。
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http status %s", e.URL, e.Status)
}

// Client 为带重试的 HTTP 客户端。
type Client struct {
	http      *http.Client
	retry     int
	userAgent string
	maxBody   int64
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	Retry      int
	UserAgent  string
	MaxBody    int64
}

// New 创建客户端，支持 http/https 代理与单请求超时。
func New(opts Options) (*Client, error) {
	var proxyHTTP, proxyHTTPS *url.URL
	var err error
	if opts.ProxyHTTP != "" {
		if proxyHTTP, err = url.Parse(opts.ProxyHTTP); err != nil {
			return nil, fmt.Errorf("parse http proxy: %w", err)
		}
	}
	if opts.ProxyHTTPS != "" {
		if proxyHTTPS, err = url.Parse(opts.ProxyHTTPS); err != nil {
			return nil, fmt.Errorf("parse https proxy: %w", err)
		}
	}
	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && proxyHTTPS != nil {
				return proxyHTTPS, nil
			}
			if req.URL.Scheme == "http" && proxyHTTP != nil {
				return proxyHTTP, nil
			}
			return http.ProxyFromEnvironment(req)
		},
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	ua := opts.UserAgent
	if v := os.Getenv("OGA_UA"); v != "" {
		ua = v
	}
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Client{
		http:      &http.Client{Transport: transport, Timeout: opts.Timeout},
		retry:     opts.Retry,
		userAgent: ua,
		maxBody:   opts.MaxBody,
	}, nil
}

// UserAgent 返回请求使用的 UA。
func (c *Client) UserAgent() string { return c.userAgent }

// Get 发起 GET 请求，仅在网络错误或 5xx 时线性回退重试；非 2xx 返回 *StatusError。
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	attempts := c.retry + 1
	for i := 0; i < attempts; i++ {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if reqErr != nil {
			return nil, fmt.Errorf("new request: %w", reqErr)
		}
		req.Header.Set("User-Agent", c.userAgent)
		resp, err := c.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		if err == nil {
			lastErr = &StatusError{URL: rawURL, Code: resp.StatusCode, Status: resp.Status}
			resp.Body.Close()
			if resp.StatusCode < 500 {
				break
			}
		} else {
			lastErr = err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 300 * time.Millisecond):
		}
	}
	metrics.FetchErrors.WithLabelValues(errorKind(lastErr)).Inc()
	return nil, lastErr
}

// Response 为读取完毕的响应。
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetch 发起 GET 并读取完整响应体（受 MaxBody 限制）。
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		metrics.FetchErrors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("read body %s: %w", rawURL, err)
	}
	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func errorKind(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}
	return "network"
}
