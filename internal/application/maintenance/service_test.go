package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/rxnguard/internal/application/catalog"
	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/infrastructure/storage/minio"
	"github.com/turtacn/rxnguard/pkg/errors"
)

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Upload(ctx context.Context, req *minio.UploadRequest) (*minio.UploadResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*minio.UploadResult)
	return res, args.Error(1)
}

func (m *MockArchive) UploadDir(ctx context.Context, backupName, dir string) ([]*minio.UploadResult, error) {
	args := m.Called(ctx, backupName, dir)
	res, _ := args.Get(0).([]*minio.UploadResult)
	return res, args.Error(1)
}

func (m *MockArchive) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockArchive) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockArchive) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockArchive) ListBackups(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockArchive) List(ctx context.Context, backupName string) ([]*minio.ObjectMetadata, error) {
	args := m.Called(ctx, backupName)
	objs, _ := args.Get(0).([]*minio.ObjectMetadata)
	return objs, args.Error(1)
}

type ServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	dir     string
	sink    *telemetry.Sink
	archive *MockArchive
	svc     *Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
	s.sink = telemetry.NewSink(telemetry.NewMemoryStore(), nil)
	s.archive = new(MockArchive)

	training := filepath.Join(s.dir, "training_data.jsonl")
	s.Require().NoError(os.WriteFile(training, []byte(`{"reactants":"CCO","product":"C=C","label":1,"smarts":""}`+"\n"), 0o644))

	svc, err := NewService(Deps{
		Sink:             s.sink,
		Catalog:          catalog.Default(),
		Archive:          s.archive,
		BackupDir:        filepath.Join(s.dir, "backups"),
		TrainingDataPath: training,
	})
	s.Require().NoError(err)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 13, 7, 9, 0, time.Local) }
	s.svc = svc
}

func (s *ServiceTestSuite) seed(failures int) {
	for i := 0; i < failures; i++ {
		_, err := s.sink.AppendFailure(s.ctx, telemetry.FailureEntry{
			ID: fmt.Sprintf("f%d", i), Product: fmt.Sprintf("P%d", i), Reason: "too dissimilar",
		})
		s.Require().NoError(err)
	}
	for i := 0; i < 25; i++ {
		s.Require().NoError(s.sink.UpdateStats(s.ctx, fmt.Sprintf("rxn%02d", i), i+1, i, 1))
	}
}

func (s *ServiceTestSuite) TestNewService_Validation() {
	_, err := NewService(Deps{BackupDir: "x"})
	s.Error(err)
	_, err = NewService(Deps{Sink: s.sink})
	s.Error(err)
}

func (s *ServiceTestSuite) TestCheck() {
	s.seed(3)
	report, err := s.svc.Check(s.ctx)
	s.Require().NoError(err)

	s.True(report.Healthy)
	s.Equal("memory", report.Backend)
	s.Equal(3, report.FailuresLogged)
	s.Equal(25, report.ReactionsTracked)
	s.Equal(telemetry.DefaultMaxFailures, report.MaxFailures)
	s.Equal(40, report.CatalogSize)
	s.Empty(report.CatalogIssues)
	s.Equal(1, report.TrainingExamples)
	s.Equal("0.1 KB", report.Files["training_data.jsonl"])
	s.Empty(report.Backups)
}

func (s *ServiceTestSuite) TestBackup_Local() {
	s.seed(2)
	res, err := s.svc.Backup(s.ctx, false)
	s.Require().NoError(err)

	s.Equal("backup_20260504_130709", res.Name)
	s.Equal([]string{"failed_reactions.json", "reaction_stats.json", "training_data.jsonl"}, res.Files)
	for _, f := range res.Files {
		s.FileExists(filepath.Join(res.Dir, f))
	}
	s.archive.AssertNotCalled(s.T(), "UploadDir", mock.Anything, mock.Anything, mock.Anything)

	backups, err := s.svc.LocalBackups()
	s.Require().NoError(err)
	s.Equal([]string{"backup_20260504_130709"}, backups)
}

func (s *ServiceTestSuite) TestBackup_Remote() {
	uploaded := []*minio.UploadResult{{Bucket: "rxnguard-backups", ObjectKey: "backups/backup_20260504_130709/failed_reactions.json"}}
	s.archive.On("UploadDir", s.ctx, "backup_20260504_130709", mock.AnythingOfType("string")).Return(uploaded, nil).Once()

	res, err := s.svc.Backup(s.ctx, true)
	s.Require().NoError(err)
	s.Equal(uploaded, res.Uploaded)
	s.archive.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestBackup_RemoteWithoutArchive() {
	s.svc.archive = nil
	_, err := s.svc.Backup(s.ctx, true)
	s.Require().Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeBackupFailed))
}

func (s *ServiceTestSuite) TestStats() {
	s.seed(7)
	report, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)

	s.Len(report.Top, TopTemplates)
	s.Equal("rxn24", report.Top[0].Name)
	s.EqualValues(25, report.Top[0].TotalProducts)
	s.Len(report.Recent, RecentFailures)
	s.Equal("f6", report.Recent[0].ID, "newest first")
	s.Equal("f2", report.Recent[4].ID)
	s.Equal(7, report.Summary.TotalFailedLogged)
	s.Equal(7, report.Summary.FailureReasons["too_dissimilar"])
}

func (s *ServiceTestSuite) TestClean_BacksUpThenClears() {
	s.seed(4)
	res, err := s.svc.Clean(s.ctx, false)
	s.Require().NoError(err)
	s.DirExists(res.Dir)

	snap, err := s.sink.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Empty(snap.Failures)
	s.Empty(snap.Stats)

	s.Require().NoError(s.svc.Restore(s.ctx, res.Name))
	snap, err = s.sink.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Len(snap.Failures, 4)
	s.Len(snap.Stats, 25)
}

func (s *ServiceTestSuite) TestClean_BackupFailureKeepsData() {
	s.seed(1)
	s.archive.On("UploadDir", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeBackupFailed, "bucket gone")).Once()

	_, err := s.svc.Clean(s.ctx, true)
	s.Require().Error(err)
	failures, err := s.sink.FailedReactions(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(failures, 1)
}

func (s *ServiceTestSuite) TestRestore_Missing() {
	err := s.svc.Restore(s.ctx, "backup_19990101_000000")
	s.Require().Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestFormatKB(t *testing.T) {
	assert.Equal(t, "0.0 KB", formatKB(0))
	assert.Equal(t, "2.5 KB", formatKB(2560))
	require.Equal(t, "missing", fileStatus(filepath.Join(t.TempDir(), "nope")))
}

//Personal.AI order the ending
