// Package scraper discovers linked files on a web page, downloads them, and
// turns their text into documents for the search index.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/buscador/internal/config"
	"github.com/hyperjump/buscador/internal/extract"
	"github.com/hyperjump/buscador/internal/fileid"
	"github.com/hyperjump/buscador/internal/metrics"
	"github.com/hyperjump/buscador/internal/models"
)

// Source is the value of the "source" field on scraped documents.
const Source = "web_scraping"

// maxPageBytes bounds the seed page body.
const maxPageBytes = 10 << 20

// Extractor reads text from a downloaded file; the extension of path selects the format.
type Extractor interface {
	Extract(path string) (string, error)
}

// Request describes one scrape pass. Zero limits take the configured defaults.
type Request struct {
	URL        string
	Extensions []string
	MaxFiles   int
	MaxPages   int
}

// Skip records a candidate that produced no document.
type Skip struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Result lists the produced documents and what happened to each candidate.
type Result struct {
	Documents []models.Document
	Found     int      // matching links on the page, before the cap
	Attempted []string // candidates downloaded, in order
	Skipped   []Skip
}

// Scraper fetches pages and linked files.
type Scraper struct {
	cfg          config.ScraperConfig
	client       *http.Client
	limiter      *rate.Limiter
	stagingDir   string
	newExtractor func(maxPages int) Extractor
	logger       *zap.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithStagingDir sets the parent of per-request download directories.
func WithStagingDir(dir string) Option {
	return func(s *Scraper) { s.stagingDir = dir }
}

// WithExtractor replaces the text extractor factory. maxPages is the
// per-request PDF page bound.
func WithExtractor(f func(maxPages int) Extractor) Option {
	return func(s *Scraper) { s.newExtractor = f }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scraper bounded by cfg.
func New(cfg config.ScraperConfig, opts ...Option) *Scraper {
	s := &Scraper{
		cfg:    cfg,
		client: &http.Client{},
		logger: zap.NewNop(),
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	s.newExtractor = func(maxPages int) Extractor {
		return extract.NewExtractor(extract.WithMaxPages(maxPages), extract.WithLogger(s.logger))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scraper) withDefaults(req Request) Request {
	if len(req.Extensions) == 0 {
		req.Extensions = s.cfg.Extensions
	}
	req.Extensions = normalizeExtensions(req.Extensions)
	if req.MaxFiles <= 0 {
		req.MaxFiles = s.cfg.MaxFiles
	}
	if req.MaxFiles <= 0 {
		req.MaxFiles = 5
	}
	if req.MaxPages <= 0 {
		req.MaxPages = s.cfg.MaxPages
	}
	if req.MaxPages <= 0 {
		req.MaxPages = 5
	}
	return req
}

func (s *Scraper) timeout(sec, def int) time.Duration {
	if sec <= 0 {
		sec = def
	}
	return time.Duration(sec) * time.Second
}

// Scrape fetches req.URL, downloads up to req.MaxFiles linked files with a
// matching extension, and returns one document per file with readable text.
// Failures on individual files are reported in Result.Skipped; only a seed
// page failure is an error.
func (s *Scraper) Scrape(ctx context.Context, req Request) (Result, error) {
	var res Result
	req = s.withDefaults(req)
	seed, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (seed.Scheme != "http" && seed.Scheme != "https") || seed.Host == "" {
		return res, fmt.Errorf("%w: url must be an absolute http(s) address", models.ErrValidation)
	}

	links, err := s.fetchLinks(ctx, seed, req.Extensions)
	if err != nil {
		return res, err
	}
	res.Found = len(links)
	if len(links) > req.MaxFiles {
		links = links[:req.MaxFiles]
	}
	s.logger.Info("scrape candidates",
		zap.String("url", seed.String()),
		zap.Int("found", res.Found),
		zap.Int("selected", len(links)))
	if len(links) == 0 {
		return res, nil
	}

	staging, err := os.MkdirTemp(s.stagingDir, "webpdf_")
	if err != nil {
		return res, fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			s.logger.Warn("staging cleanup failed", zap.String("dir", staging), zap.Error(err))
		}
	}()

	ex := s.newExtractor(req.MaxPages)
	for i, link := range links {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return res, err
			}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempted = append(res.Attempted, link)
		doc, err := s.fetchDocument(ctx, ex, staging, i, link)
		if err != nil {
			status := "error"
			if errors.Is(err, errNoText) {
				status = "empty"
			}
			metrics.ScrapeDownloadsTotal.WithLabelValues(status).Inc()
			s.logger.Debug("scrape candidate skipped", zap.String("url", link), zap.Error(err))
			res.Skipped = append(res.Skipped, Skip{URL: link, Reason: err.Error()})
			continue
		}
		metrics.ScrapeDownloadsTotal.WithLabelValues("ok").Inc()
		res.Documents = append(res.Documents, doc)
	}
	if n := len(res.Documents); n > 0 {
		metrics.DocumentsIngestedTotal.WithLabelValues(Source).Add(float64(n))
	}
	s.logger.Info("scrape finished",
		zap.String("url", seed.String()),
		zap.Int("documents", len(res.Documents)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (s *Scraper) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return res, nil
}

func (s *Scraper) fetchLinks(ctx context.Context, seed *url.URL, exts []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout(s.cfg.PageTimeoutSec, 20))
	defer cancel()
	res, err := s.get(ctx, seed.String())
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", models.ErrUpstream, seed, err)
	}
	defer res.Body.Close()
	// Redirects change the base for relative links.
	base := res.Request.URL
	links, err := findLinks(io.LimitReader(res.Body, maxPageBytes), base, exts)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", models.ErrUpstream, seed, err)
	}
	return links, nil
}

var errNoText = errors.New("no readable text")

func (s *Scraper) fetchDocument(ctx context.Context, ex Extractor, dir string, i int, link string) (models.Document, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, err
	}
	name := fileName(u)
	local := filepath.Join(dir, fmt.Sprintf("%02d_%s", i, filepath.Base(name)))
	if err := s.download(ctx, link, local); err != nil {
		return nil, err
	}
	text, err := ex.Extract(local)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errNoText
	}
	return models.Document{
		"id":        fileid.URLDocID(link),
		"source":    Source,
		"url_pdf":   link,
		"titulo":    name,
		"contenido": text,
	}, nil
}

func (s *Scraper) download(ctx context.Context, link, local string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout(s.cfg.DownloadTimeoutSec, 40))
	defer cancel()
	res, err := s.get(ctx, link)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer res.Body.Close()

	limit := s.cfg.MaxDownloadBytes
	if limit <= 0 {
		limit = 50 << 20
	}
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("stage download: %w", err)
	}
	n, copyErr := io.Copy(f, io.LimitReader(res.Body, limit+1))
	if err := f.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		return fmt.Errorf("download: %w", copyErr)
	}
	if n > limit {
		return fmt.Errorf("download exceeds %d bytes", limit)
	}
	return nil
}
