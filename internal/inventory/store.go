// 包 inventory 负责站点清单的持久化：整体写回（临时文件 + 重命名），
// 读取时文件缺失或格式损坏均视为无清单。
package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-og-audit/internal/logx"
	"go-og-audit/internal/model"
)

// NotAuditedIssue 为手动登记页面的占位问题。
const NotAuditedIssue = "Not audited yet"

// Store 以单个 JSON 文件保存清单。
type Store struct {
	Path string
}

// New 创建 Store。
func New(path string) *Store { return &Store{Path: path} }

// Save 以两空格缩进写出完整清单，先写临时文件再原子替换。
func (s *Store) Save(inv *model.OGInventory) error {
	if inv == nil {
		return errors.New("nil inventory")
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".og-inventory-*.json")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(inv); err != nil {
		f.Close()
		return fmt.Errorf("encode json to %s: %w", s.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename %s: %w", s.Path, err)
	}
	return nil
}

// Load 读取清单；文件不存在或无法解析时返回 nil, nil，其余 I/O 错误照常返回。
func (s *Store) Load() (*model.OGInventory, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	var inv model.OGInventory
	if err := json.Unmarshal(b, &inv); err != nil {
		logx.Warnf("清单文件格式损坏，已忽略：%s（%v）", s.Path, err)
		return nil, nil
	}
	return &inv, nil
}

// Register 载入或新建清单，追加尚未登记的路径（得分 0、问题为 "Not audited yet"），
// 路径先统一为以 / 开头的形式再去重，
// 重新计算统计后整体写回。返回写回后的清单与新增数量。
func (s *Store) Register(paths []string, baseURL string) (*model.OGInventory, int, error) {
	inv, err := s.Load()
	if err != nil {
		return nil, 0, err
	}
	if inv == nil {
		inv = &model.OGInventory{BaseURL: baseURL, AuditedAt: time.Now().UTC(), Pages: []model.AuditResult{}}
	}
	if inv.BaseURL == "" {
		inv.BaseURL = baseURL
	}
	seen := make(map[string]bool, len(inv.Pages))
	for _, p := range inv.Pages {
		seen[p.Path] = true
	}
	added := 0
	for _, raw := range paths {
		p, origin := normalizePath(raw)
		if inv.BaseURL == "" && origin != "" {
			inv.BaseURL = origin
		}
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		inv.Pages = append(inv.Pages, model.AuditResult{
			URL:    joinOrigin(inv.BaseURL, p),
			Path:   p,
			Score:  0,
			Issues: []string{NotAuditedIssue},
		})
		added++
	}
	inv.Recompute()
	if err := s.Save(inv); err != nil {
		return nil, 0, err
	}
	logx.Infof("登记页面：新增 %d，总计 %d", added, inv.TotalPages)
	return inv, added, nil
}

// normalizePath 将输入统一为以 / 开头的路径；给出 http(s) 绝对地址时取其路径（含查询串），
// 并返回该地址的源。
func normalizePath(raw string) (path, origin string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		path = u.EscapedPath()
		if path == "" {
			path = "/"
		}
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
		return path, u.Scheme + "://" + strings.ToLower(u.Host)
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return raw, ""
}

func joinOrigin(base, p string) string {
	if base == "" {
		return p
	}
	return strings.TrimRight(base, "/") + p
}
