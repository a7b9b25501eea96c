package scheduler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/classgraph/internal/repository"
	"github.com/classgraph/internal/rpc"
	"github.com/classgraph/internal/scan"
	"github.com/classgraph/internal/storage"
	"github.com/classgraph/pkg/compression"
	"github.com/classgraph/pkg/config"
	"github.com/classgraph/pkg/model"
	"github.com/classgraph/pkg/utils"
	"github.com/classgraph/pkg/writer"
)

// DefaultJobProcessor implements JobProcessor by driving a scan.Scanner over
// each job's classpath and archiving the resulting diagnostics bundle.
type DefaultJobProcessor struct {
	config     *config.Config
	scanner    *scan.Scanner
	storage    storage.Storage
	repos      *repository.Repositories
	queryCache *rpc.Cache
	logger     utils.Logger
}

// ProcessorConfig holds processor configuration.
type ProcessorConfig struct {
	Config     *config.Config
	Scanner    *scan.Scanner
	Storage    storage.Storage
	Repos      *repository.Repositories
	QueryCache *rpc.Cache
	Logger     utils.Logger
}

// NewDefaultJobProcessor creates a new DefaultJobProcessor.
func NewDefaultJobProcessor(cfg *ProcessorConfig) *DefaultJobProcessor {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &DefaultJobProcessor{
		config:     cfg.Config,
		scanner:    cfg.Scanner,
		storage:    cfg.Storage,
		repos:      cfg.Repos,
		queryCache: cfg.QueryCache,
		logger:     cfg.Logger,
	}
}

// Process scans a single job's classpath and persists its result.
func (p *DefaultJobProcessor) Process(ctx context.Context, job *Job) error {
	p.logger.Info("Starting scan for job %s (source: %s)", job.UUID, job.Source)

	jobDir := p.config.GetJobDir(job.UUID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(jobDir); err != nil {
			p.logger.Warn("Failed to clean up job directory %s: %v", jobDir, err)
		}
	}()

	override, err := p.resolveOverride(ctx, job, jobDir)
	if err != nil {
		p.fail(ctx, job, fmt.Sprintf("failed to resolve classpath: %v", err))
		return fmt.Errorf("failed to resolve classpath: %w", err)
	}

	startTime := time.Now()
	result, err := p.scanner.Run(ctx, scan.Request{Override: override})
	if err != nil {
		p.fail(ctx, job, err.Error())
		return fmt.Errorf("scan failed: %w", err)
	}
	duration := time.Since(startTime)

	if p.queryCache != nil {
		p.queryCache.Put(job.UUID, result.Engine)
	}

	scanResult := summarizeResult(job.UUID, result, duration)

	bundlePath, sha, err := p.archiveBundle(ctx, job, result)
	if err != nil {
		p.logger.Warn("Failed to archive diagnostics bundle for job %s: %v", job.UUID, err)
	} else {
		scanResult.BundlePath = bundlePath
		scanResult.BundleSHA256 = sha
	}

	if manifestKey, err := p.archiveResourceManifest(ctx, job, result); err != nil {
		p.logger.Warn("Failed to archive resource manifest for job %s: %v", job.UUID, err)
	} else if manifestKey != "" {
		p.logger.Info("Resource manifest written to: %s", manifestKey)
	}

	if err := p.repos.Result.SaveResult(ctx, scanResult); err != nil {
		return fmt.Errorf("failed to save scan result: %w", err)
	}

	if job.BatchUUID != nil && *job.BatchUUID != "" {
		if err := p.repos.Batch.CheckAndCompleteIfReady(ctx, *job.BatchUUID); err != nil {
			p.logger.Warn("Failed to update batch job %s: %v", *job.BatchUUID, err)
		}
	}

	if err := p.repos.Job.UpdateStatus(ctx, job.ID, model.JobStatusCompleted); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	p.logger.Info("Job %s scan completed: %d classes, %d external, %d resources",
		job.UUID, scanResult.ClassCount, scanResult.ExternalCount, scanResult.ResourceCount)
	return nil
}

// resolveOverride determines the classpath override string to scan: either
// the job's explicit override, or an archive downloaded from storage.
func (p *DefaultJobProcessor) resolveOverride(ctx context.Context, job *Job, jobDir string) (string, error) {
	if job.Request.ClasspathOverride != "" {
		return job.Request.ClasspathOverride, nil
	}

	if job.StorageKey == "" {
		return "", fmt.Errorf("job has neither a classpath override nor a storage key")
	}

	localPath := filepath.Join(jobDir, filepath.Base(job.StorageKey))
	if err := p.storage.DownloadFile(ctx, job.StorageKey, localPath); err != nil {
		return "", fmt.Errorf("failed to download classpath archive: %w", err)
	}

	return localPath, nil
}

// fail marks a job failed with a diagnostic message, best-effort.
func (p *DefaultJobProcessor) fail(ctx context.Context, job *Job, reason string) {
	if err := p.repos.Job.UpdateStatusWithInfo(ctx, job.ID, model.JobStatusFailed, reason); err != nil {
		p.logger.Error("Failed to mark job %s failed: %v", job.UUID, err)
	}
}

// archiveBundle flushes the scan's diagnostics log, gzip-compresses it, and
// uploads it to object storage, returning its storage key and sha256 digest.
func (p *DefaultJobProcessor) archiveBundle(ctx context.Context, job *Job, result *scan.Result) (string, string, error) {
	var buf bytes.Buffer
	if err := result.Log.Flush(&buf); err != nil {
		return "", "", fmt.Errorf("failed to flush diagnostics log: %w", err)
	}

	sum := sha256.Sum256(buf.Bytes())

	compressor, err := compression.New(compression.TypeGzip, compression.LevelDefault)
	if err != nil {
		return "", "", fmt.Errorf("failed to create compressor: %w", err)
	}

	compressed, err := compressor.Compress(buf.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("failed to compress diagnostics bundle: %w", err)
	}

	key := fmt.Sprintf("%s/diagnostics.log.gz", job.UUID)
	if err := p.storage.Upload(ctx, key, bytes.NewReader(compressed)); err != nil {
		return "", "", fmt.Errorf("failed to upload diagnostics bundle: %w", err)
	}

	return key, hex.EncodeToString(sum[:]), nil
}

// resourceManifestEntry is one non-classfile resource recorded in a job's
// resource manifest.
type resourceManifestEntry struct {
	ClasspathElement string `json:"classpath_element"`
	Path             string `json:"path"`
}

// archiveResourceManifest gzip-JSON-encodes the scan's matched resources and
// uploads the result alongside the diagnostics bundle. Returns "" with a nil
// error if the scan matched no resources.
func (p *DefaultJobProcessor) archiveResourceManifest(ctx context.Context, job *Job, result *scan.Result) (string, error) {
	if len(result.Resources) == 0 {
		return "", nil
	}

	entries := make([]resourceManifestEntry, 0, len(result.Resources))
	for _, r := range result.Resources {
		entries = append(entries, resourceManifestEntry{
			ClasspathElement: r.ClasspathElementPath(),
			Path:             r.PathRelativeToPackageRoot,
		})
	}

	var buf bytes.Buffer
	gw := writer.NewGzipWriter[[]resourceManifestEntry]()
	if err := gw.Write(entries, &buf); err != nil {
		return "", fmt.Errorf("failed to encode resource manifest: %w", err)
	}

	key := fmt.Sprintf("%s/resources.json.gz", job.UUID)
	if err := p.storage.Upload(ctx, key, &buf); err != nil {
		return "", fmt.Errorf("failed to upload resource manifest: %w", err)
	}
	return key, nil
}

// summarizeResult reduces a scan.Result into the persisted model.ScanResult.
func summarizeResult(jobUUID string, result *scan.Result, duration time.Duration) *model.ScanResult {
	classCount, externalCount := 0, 0
	packages := make(map[string]struct{})

	for _, rec := range result.Graph.All() {
		if rec.IsExternal {
			externalCount++
		} else {
			classCount++
		}
		packages[packageOf(rec.Name)] = struct{}{}
	}

	return &model.ScanResult{
		JobUUID:        jobUUID,
		ClassCount:     classCount,
		ExternalCount:  externalCount,
		PackageCount:   len(packages),
		ResourceCount:  len(result.Resources),
		NonFatalErrors: len(result.NonFatalErrors),
		ScanDuration:   duration.Milliseconds(),
		AnalyzedAt:     time.Now(),
	}
}

// packageOf returns the package portion of a dotted class name, e.g.
// "com.foo.Bar" -> "com.foo".
func packageOf(className string) string {
	if i := strings.LastIndexByte(className, '.'); i >= 0 {
		return className[:i]
	}
	return ""
}
