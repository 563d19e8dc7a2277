// Package ingest turns uploaded JSON files and ZIP archives of JSON files into
// flat document batches for the search index.
package ingest

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/config"
	"github.com/hyperjump/buscador/internal/metrics"
	"github.com/hyperjump/buscador/internal/models"
)

// Upload is one file received from a client.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileUpload adapts a multipart form file.
func FileUpload(fh *multipart.FileHeader) Upload {
	return Upload{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// PathUpload adapts a local file.
func PathUpload(p string) Upload {
	return Upload{
		Name: filepath.Base(p),
		Open: func() (io.ReadCloser, error) { return os.Open(p) },
	}
}

// Result reports what a Process pass produced and what it skipped.
type Result struct {
	Documents []models.Document
	Processed []string // files that contributed input
	Dropped   []string // files over the per-request limit
	Ignored   []string // files with unsupported extensions
	Warnings  []string // unreadable or malformed entries
}

// Indexer writes a document batch; *search.Client satisfies it.
type Indexer interface {
	BulkIndex(ctx context.Context, index string, docs []models.Document) models.Outcome
}

// Pipeline processes uploads within the configured limits.
type Pipeline struct {
	cfg     config.IngestConfig
	indexer Indexer
	logger  *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline. indexer may be nil when only Process is used.
func NewPipeline(cfg config.IngestConfig, indexer Indexer, opts ...Option) *Pipeline {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 2
	}
	if cfg.MaxEntryBytes <= 0 {
		cfg.MaxEntryBytes = 32 << 20
	}
	p := &Pipeline{cfg: cfg, indexer: indexer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process stages the uploads in a temporary directory, removed before
// returning, and extracts every JSON document. Files past the MaxFiles limit
// are dropped. A pass that yields no documents fails with models.ErrNoDocuments.
func (p *Pipeline) Process(ctx context.Context, files []Upload) (Result, error) {
	var res Result
	staging, err := os.MkdirTemp(p.cfg.StagingDir, "upload_")
	if err != nil {
		return res, fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			p.logger.Warn("staging cleanup failed", zap.String("dir", staging), zap.Error(err))
		}
	}()

	if len(files) > p.cfg.MaxFiles {
		for _, f := range files[p.cfg.MaxFiles:] {
			res.Dropped = append(res.Dropped, f.Name)
		}
		files = files[:p.cfg.MaxFiles]
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ext := strings.ToLower(path.Ext(f.Name))
		if ext != ".zip" && ext != ".json" {
			res.Ignored = append(res.Ignored, f.Name)
			continue
		}
		local, err := p.stage(staging, i, f)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		var docs []models.Document
		var warns []string
		if ext == ".zip" {
			docs, warns, err = p.readZip(local, f.Name)
		} else {
			docs, warns, err = p.readJSONFile(local, f.Name)
		}
		res.Warnings = append(res.Warnings, warns...)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		res.Processed = append(res.Processed, f.Name)
		res.Documents = append(res.Documents, docs...)
	}

	p.logger.Info("upload processed",
		zap.Int("documents", len(res.Documents)),
		zap.Strings("dropped", res.Dropped),
		zap.Strings("ignored", res.Ignored),
		zap.Int("warnings", len(res.Warnings)))
	for _, w := range res.Warnings {
		p.logger.Debug("upload warning", zap.String("detail", w))
	}
	if len(res.Documents) == 0 {
		return res, models.ErrNoDocuments
	}
	metrics.DocumentsIngestedTotal.WithLabelValues("upload").Add(float64(len(res.Documents)))
	return res, nil
}

// IngestAndIndex processes files and bulk-indexes the documents into index.
func (p *Pipeline) IngestAndIndex(ctx context.Context, index string, files []Upload) (Result, models.Outcome, error) {
	if p.indexer == nil {
		return Result{}, models.Outcome{}, errors.New("ingest: no indexer configured")
	}
	res, err := p.Process(ctx, files)
	if err != nil {
		return res, models.Failure(err), err
	}
	return res, p.indexer.BulkIndex(ctx, index, res.Documents), nil
}

// stage copies an upload into dir, bounded by MaxUploadBytes when set.
func (p *Pipeline) stage(dir string, i int, f Upload) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	base := filepath.Base(filepath.Clean("/" + f.Name))
	if base == "/" || base == "." {
		base = "upload"
	}
	local := filepath.Join(dir, fmt.Sprintf("%02d_%s", i, base))
	out, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	defer out.Close()

	var src io.Reader = rc
	if p.cfg.MaxUploadBytes > 0 {
		src = io.LimitReader(rc, p.cfg.MaxUploadBytes+1)
	}
	n, err := io.Copy(out, src)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if p.cfg.MaxUploadBytes > 0 && n > p.cfg.MaxUploadBytes {
		return "", fmt.Errorf("file exceeds %d bytes", p.cfg.MaxUploadBytes)
	}
	return local, nil
}

func (p *Pipeline) readJSONFile(local, name string) ([]models.Document, []string, error) {
	f, err := os.Open(local)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	data, err := readBounded(f, p.cfg.MaxEntryBytes)
	if err != nil {
		return nil, nil, err
	}
	return parseDocuments(data, name)
}

// readZip parses every .json entry. Directories, macOS resource forks, and
// other extensions are skipped silently; bad entries become warnings.
func (p *Pipeline) readZip(local, name string) ([]models.Document, []string, error) {
	zr, err := zip.OpenReader(local)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid zip: %w", err)
	}
	defer zr.Close()

	var (
		docs  []models.Document
		warns []string
	)
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || skipEntry(entry.Name) {
			continue
		}
		if strings.ToLower(path.Ext(entry.Name)) != ".json" {
			continue
		}
		label := name + "/" + entry.Name
		if entry.UncompressedSize64 > uint64(p.cfg.MaxEntryBytes) {
			warns = append(warns, fmt.Sprintf("%s: entry exceeds %d bytes", label, p.cfg.MaxEntryBytes))
			continue
		}
		data, err := readEntry(entry, p.cfg.MaxEntryBytes)
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		d, w, err := parseDocuments(data, label)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		docs = append(docs, d...)
	}
	return docs, warns, nil
}

func skipEntry(name string) bool {
	return strings.HasPrefix(name, "__MACOSX/") ||
		strings.Contains(name, "/__MACOSX/") ||
		strings.HasPrefix(path.Base(name), "._")
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readBounded(rc, limit)
}

func readBounded(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("content exceeds %d bytes", limit)
	}
	return data, nil
}
