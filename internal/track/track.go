// Package track checks stored prospects for live backlinks to the
// target domain and writes a JSON report.
package track

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"outreach/internal/model"
)

const (
	fetchTimeout = 10 * time.Second
	userAgent    = "Mozilla/5.0 (compatible; LinkBuilder/1.0)"

	// maxBodyBytes caps how much of a homepage is read when scanning
	// for backlinks.
	maxBodyBytes = 2 << 20
)

// Result records the outcome of a single backlink check.
type Result struct {
	SiteName    string    `json:"site_name"`
	HomepageURL string    `json:"homepage_url"`
	HasBacklink bool      `json:"has_backlink"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Report is the full output of one tracking run.
type Report struct {
	TargetDomain string    `json:"target_domain"`
	CheckedAt    time.Time `json:"checked_at"`
	Results      []Result  `json:"results"`
	Summary      Summary   `json:"summary"`
}

type Summary struct {
	TotalChecked   int `json:"total_checked"`
	BacklinksFound int `json:"backlinks_found"`
}

// Checker scans prospect homepages for anchor links pointing at the
// target domain.
type Checker struct {
	targetDomain string
	client       *http.Client
	patterns     []*regexp.Regexp
	logger       *slog.Logger
	now          func() time.Time
}

func NewChecker(targetDomain string, logger *slog.Logger) *Checker {
	escaped := regexp.QuoteMeta(targetDomain)
	return &Checker{
		targetDomain: targetDomain,
		client:       &http.Client{Timeout: fetchTimeout},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)href=["']https?://` + escaped),
			regexp.MustCompile(`(?i)href=["']https?://www\.` + escaped),
			regexp.MustCompile(`(?i)href=["']/` + escaped),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Check fetches each prospect's homepage and reports which ones link back
// to the target domain. Prospects without a homepage URL are skipped;
// fetch failures count as no backlink.
func (c *Checker) Check(ctx context.Context, prospects []model.Prospect) *Report {
	report := &Report{
		TargetDomain: c.targetDomain,
		CheckedAt:    c.now(),
		Results:      []Result{},
	}

	for _, p := range prospects {
		if p.HomepageURL == nil || *p.HomepageURL == "" {
			c.logger.Debug("no homepage URL, skipping", "site", p.SiteName)
			continue
		}

		url := *p.HomepageURL
		c.logger.Info("checking for backlink", "site", p.SiteName, "url", url)

		body, err := c.fetchPage(ctx, url)
		if err != nil {
			c.logger.Warn("fetch failed", "site", p.SiteName, "url", url, "error", err)
		}

		found := c.hasBacklink(body)
		report.Results = append(report.Results, Result{
			SiteName:    p.SiteName,
			HomepageURL: url,
			HasBacklink: found,
			CheckedAt:   c.now(),
		})
		if found {
			report.Summary.BacklinksFound++
		}
	}

	report.Summary.TotalChecked = len(report.Results)
	return report
}

func (c *Checker) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(data), nil
}

func (c *Checker) hasBacklink(html string) bool {
	if html == "" {
		return false
	}
	for _, p := range c.patterns {
		if p.MatchString(html) {
			return true
		}
	}
	return false
}

// WriteReport writes the report as indented JSON, atomically.
func WriteReport(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".backlink-*.json")
	if err != nil {
		return fmt.Errorf("creating temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
