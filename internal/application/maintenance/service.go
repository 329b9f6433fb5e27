// Package maintenance provides the operator tasks behind `rxnguard maintain`:
// health check, backup, statistics and log reset.
package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/rxnguard/internal/application/annotation"
	"github.com/turtacn/rxnguard/internal/application/catalog"
	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/infrastructure/storage/minio"
	"github.com/turtacn/rxnguard/pkg/errors"
)

const (
	// BackupPrefix starts every backup directory name.
	BackupPrefix = "backup_"
	// BackupTimeLayout renders the backup timestamp as YYYYMMDD_HHMMSS.
	BackupTimeLayout = "20060102_150405"

	TopTemplates   = 20
	RecentFailures = 5
)

// Deps are the collaborators of the Service.  Archive and Catalog are
// optional.
type Deps struct {
	Sink             *telemetry.Sink
	Catalog          *catalog.Catalog
	Archive          minio.BackupArchive
	BackupDir        string
	TrainingDataPath string
	Logger           logging.Logger
}

type Service struct {
	sink         *telemetry.Sink
	catalog      *catalog.Catalog
	archive      minio.BackupArchive
	backupDir    string
	trainingPath string
	logger       logging.Logger
	now          func() time.Time
}

func NewService(d Deps) (*Service, error) {
	if d.Sink == nil {
		return nil, errors.New(errors.ErrCodeValidation, "maintenance needs a telemetry sink")
	}
	if d.BackupDir == "" {
		return nil, errors.New(errors.ErrCodeValidation, "maintenance needs a backup directory")
	}
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	return &Service{
		sink:         d.Sink,
		catalog:      d.Catalog,
		archive:      d.Archive,
		backupDir:    d.BackupDir,
		trainingPath: d.TrainingDataPath,
		logger:       d.Logger.Named("maintenance"),
		now:          time.Now,
	}, nil
}

// ---------------------------------------------------------------------------
// Check
// ---------------------------------------------------------------------------

// HealthReport is the outcome of Check.  Healthy is false when the store is
// unreachable or a catalog template does not parse.
type HealthReport struct {
	Healthy          bool              `json:"healthy"`
	Backend          string            `json:"backend"`
	StoreError       string            `json:"store_error,omitempty"`
	FailuresLogged   int               `json:"failures_logged"`
	MaxFailures      int               `json:"max_failures"`
	ReactionsTracked int               `json:"reactions_tracked"`
	CatalogSource    string            `json:"catalog_source,omitempty"`
	CatalogSize      int               `json:"catalog_size"`
	CatalogIssues    []catalog.Issue   `json:"catalog_issues,omitempty"`
	TrainingExamples int               `json:"training_examples"`
	Backups          []string          `json:"backups"`
	CheckedAt        time.Time         `json:"checked_at"`
	Files            map[string]string `json:"files,omitempty"`
}

func (s *Service) Check(ctx context.Context) (*HealthReport, error) {
	r := &HealthReport{
		Healthy:     true,
		Backend:     s.sink.Backend(),
		MaxFailures: s.sink.MaxFailures(),
		CheckedAt:   s.now().UTC(),
		Files:       map[string]string{},
	}

	if err := s.sink.Ping(ctx); err != nil {
		r.Healthy = false
		r.StoreError = errors.UserMessage(err)
	} else if snap, err := s.sink.Snapshot(ctx); err != nil {
		r.Healthy = false
		r.StoreError = errors.UserMessage(err)
	} else {
		r.FailuresLogged = len(snap.Failures)
		r.ReactionsTracked = len(snap.Stats)
	}

	if s.catalog != nil {
		r.CatalogSource = s.catalog.Source()
		r.CatalogSize = s.catalog.Len()
		r.CatalogIssues = s.catalog.Validate()
		if len(r.CatalogIssues) > 0 {
			r.Healthy = false
		}
	}

	if s.trainingPath != "" {
		r.Files[filepath.Base(s.trainingPath)] = fileStatus(s.trainingPath)
		examples, err := annotation.ReadExamples(s.trainingPath)
		if err != nil {
			s.logger.Warn("Training data unreadable", logging.Err(err))
		}
		r.TrainingExamples = len(examples)
	}

	backups, err := s.LocalBackups()
	if err != nil {
		return nil, err
	}
	r.Backups = backups
	return r, nil
}

func fileStatus(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return formatKB(info.Size())
}

func formatKB(n int64) string {
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

// ---------------------------------------------------------------------------
// Backup
// ---------------------------------------------------------------------------

// BackupResult describes one backup directory.
type BackupResult struct {
	Name     string                `json:"name"`
	Dir      string                `json:"dir"`
	Files    []string              `json:"files"`
	Uploaded []*minio.UploadResult `json:"uploaded,omitempty"`
}

// Backup writes both telemetry documents, the training data and the catalog
// file (when one is loaded from disk) into backups/backup_<timestamp>/.
// With remote set the directory is also uploaded to the archive.
func (s *Service) Backup(ctx context.Context, remote bool) (*BackupResult, error) {
	if remote && s.archive == nil {
		return nil, errors.New(errors.ErrCodeBackupFailed, "remote backup requested but object storage is not configured")
	}
	snap, err := s.sink.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	name := BackupPrefix + s.now().Format(BackupTimeLayout)
	dir := filepath.Join(s.backupDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBackupFailed, "create backup directory").WithDetail(dir)
	}
	res := &BackupResult{Name: name, Dir: dir}

	failures := snap.Failures
	if failures == nil {
		failures = []telemetry.FailureEntry{}
	}
	stats := snap.Stats
	if stats == nil {
		stats = map[string]telemetry.TemplateStats{}
	}
	if err := writeJSON(filepath.Join(dir, telemetry.DocFailures+".json"), failures); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(dir, telemetry.DocStats+".json"), stats); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, telemetry.DocFailures+".json", telemetry.DocStats+".json")

	extra := []string{s.trainingPath}
	if s.catalog != nil && s.catalog.Source() != "builtin" {
		extra = append(extra, s.catalog.Source())
	}
	for _, src := range extra {
		if src == "" {
			continue
		}
		copied, err := copyFile(src, dir)
		if err != nil {
			return nil, err
		}
		if copied != "" {
			res.Files = append(res.Files, copied)
		}
	}

	s.logger.Info("Backup written", logging.String("dir", dir), logging.Int("files", len(res.Files)))

	if remote {
		uploaded, err := s.archive.UploadDir(ctx, name, dir)
		if err != nil {
			return res, err
		}
		res.Uploaded = uploaded
	}
	return res, nil
}

// LocalBackups lists backup directory names, oldest first.
func (s *Service) LocalBackups() ([]string, error) {
	entries, err := os.ReadDir(s.backupDir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "list backups")
	}
	out := []string{}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), BackupPrefix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Restore loads both telemetry documents from a backup directory.
func (s *Service) Restore(ctx context.Context, name string) error {
	dir := filepath.Join(s.backupDir, filepath.Base(name))
	var snap telemetry.Snapshot
	if err := readJSON(filepath.Join(dir, telemetry.DocFailures+".json"), &snap.Failures); err != nil {
		return err
	}
	if err := readJSON(filepath.Join(dir, telemetry.DocStats+".json"), &snap.Stats); err != nil {
		return err
	}
	if err := s.sink.Restore(ctx, snap); err != nil {
		return err
	}
	s.logger.Info("Telemetry restored", logging.String("backup", name), logging.Int("failures", len(snap.Failures)))
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode backup document")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeBackupFailed, "write backup document").WithDetail(path)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.New(errors.ErrCodeNotFound, "backup document not found").WithDetail(path)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "read backup document")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode backup document").WithDetail(path)
	}
	return nil
}

// copyFile copies src into dir and returns the base name, or "" when src
// does not exist.
func copyFile(src, dir string) (string, error) {
	in, err := os.Open(src)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBackupFailed, "open backup source").WithDetail(src)
	}
	defer in.Close()

	base := filepath.Base(src)
	out, err := os.Create(filepath.Join(dir, base))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBackupFailed, "create backup file").WithDetail(base)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", errors.Wrap(err, errors.ErrCodeBackupFailed, "copy backup file").WithDetail(base)
	}
	if err := out.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBackupFailed, "close backup file").WithDetail(base)
	}
	return base, nil
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// TemplateRow is one line of the success-rate table.
type TemplateRow struct {
	Name string `json:"name"`
	telemetry.TemplateStats
}

// Report is the analytics view printed by `maintain stats`.
type Report struct {
	Summary telemetry.Summary        `json:"summary"`
	Top     []TemplateRow            `json:"top"`
	Recent  []telemetry.FailureEntry `json:"recent"`
}

// Stats ranks reactions by product count and lists the newest failures,
// newest first.
func (s *Service) Stats(ctx context.Context) (*Report, error) {
	sum, err := s.sink.Summarize(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]TemplateRow, 0, len(sum.ReactionStats))
	for name, st := range sum.ReactionStats {
		rows = append(rows, TemplateRow{Name: name, TemplateStats: st})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalProducts != rows[j].TotalProducts {
			return rows[i].TotalProducts > rows[j].TotalProducts
		}
		return rows[i].Name < rows[j].Name
	})
	if len(rows) > TopTemplates {
		rows = rows[:TopTemplates]
	}

	recent, err := s.sink.FailedReactions(ctx, RecentFailures)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return &Report{Summary: sum, Top: rows, Recent: recent}, nil
}

// ---------------------------------------------------------------------------
// Clean
// ---------------------------------------------------------------------------

// Clean backs up and then empties both telemetry documents.  Nothing is
// cleared when the backup fails.
func (s *Service) Clean(ctx context.Context, remote bool) (*BackupResult, error) {
	res, err := s.Backup(ctx, remote)
	if err != nil {
		return res, err
	}
	if err := s.sink.Clear(ctx); err != nil {
		return res, err
	}
	return res, nil
}

//Personal.AI order the ending
