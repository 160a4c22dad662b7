// 包 config 负责加载与校验应用配置（og-audit.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。配置文件可选，缺省时使用默认值。
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath 为默认配置文件路径。
const DefaultPath = "og-audit.yaml"

// DefaultInventory 为清单文件的默认相对路径。
const DefaultInventory = "og-inventory.json"

// DefaultThreshold 为单页校验可接受的最低分。
const DefaultThreshold = 70

type Config struct {
	Inventory    string        `yaml:"INVENTORY"`
	Concurrency  int           `yaml:"CONCURRENCY"` // 1 表示严格串行
	Timeout      time.Duration `yaml:"TIMEOUT"`     // 单请求超时
	Retry        int           `yaml:"RETRY"`
	UserAgent    string        `yaml:"USER_AGENT"`
	Scanner      string        `yaml:"SCANNER"` // pattern|dom
	Threshold    int           `yaml:"THRESHOLD"`
	FeedFallback bool          `yaml:"FEED_FALLBACK"`
	Paths        []string      `yaml:"PATHS"` // 站点地图缺失时的预设路径，非空则不再交互询问
	History      History       `yaml:"HISTORY"`
	MetricsAddr  string        `yaml:"METRICS_ADDR"`
	Proxy        Proxy         `yaml:"PROXY"`
	LogLevel     string        `yaml:"LOG_LEVEL"`
	LogFormat    string        `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale    string        `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor     string        `yaml:"LOG_COLOR"`  // auto|always|never
	LogFile      string        `yaml:"LOG_FILE"`
}

type History struct {
	// DSN 为空时不记录审计历史。
	DSN string `yaml:"dsn"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// Default 返回全部默认值。
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// Load 从文件读取 YAML 并反序列化为 Config，同时进行基础校验与默认值填充。
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadOrDefault 与 Load 相同，但文件不存在时返回默认配置。
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return errors.New("CONCURRENCY must be >= 0")
	}
	if c.Retry < 0 {
		return errors.New("RETRY must be >= 0")
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("THRESHOLD must be within 0..100, got %d", c.Threshold)
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Inventory == "" {
		c.Inventory = DefaultInventory
	}
	switch strings.ToLower(strings.TrimSpace(c.Scanner)) {
	case "", "pattern":
		c.Scanner = "pattern"
	case "dom":
		c.Scanner = "dom"
	default:
		return fmt.Errorf("unsupported scanner: %s", c.Scanner)
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
