package services

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("failed to init test logger: %v", err)
	}
	return log
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.StudentProfile{},
		&types.TeacherProfile{},
		&types.AdminProfile{},
		&types.Question{},
		&types.AudioAsset{},
		&types.PlacementTest{},
		&types.TestModule{},
		&types.PlacementResult{},
		&types.ContentItem{},
		&types.ContentAssignment{},
		&types.LessonPlan{},
		&types.LessonPlanTopic{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// createStudent inserts a user with a student profile and returns the
// user id.
func createStudent(t *testing.T, db *gorm.DB, level types.CEFRLevel) uuid.UUID {
	t.Helper()
	user := &types.User{
		ID:    uuid.New(),
		Email: fmt.Sprintf("%s@example.com", uuid.New()),
		Role:  types.RoleStudent,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	profile := &types.StudentProfile{
		ID:            uuid.New(),
		UserID:        user.ID,
		FallbackLevel: level,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create student profile: %v", err)
	}
	return user.ID
}

func newIdentityService(t *testing.T, db *gorm.DB) IdentityService {
	t.Helper()
	log := testLogger(t)
	return NewIdentityService(db, log, repos.NewUserRepo(db, log), repos.NewProfileRepo(db, log))
}

// ---- fakes ----

type fakeAIClient struct {
	responses []string
	errs      []error
	calls     []AICall
}

type AICall struct {
	Messages []AIMessage
	Options  *AIOptions
}

func (f *fakeAIClient) Chat(ctx context.Context, messages []AIMessage, options *AIOptions) (string, error) {
	f.calls = append(f.calls, AICall{Messages: messages, Options: options})
	index := len(f.calls) - 1
	if index < len(f.errs) && f.errs[index] != nil {
		return "", f.errs[index]
	}
	if index < len(f.responses) {
		return f.responses[index], nil
	}
	return "", fmt.Errorf("fakeAIClient: no scripted response for call %d", index+1)
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) TranscribeBytes(ctx context.Context, audio []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

func (f *fakeTranscriber) Close() error { return nil }

type fakeBucket struct {
	uploaded map[string][]byte
}

func (f *fakeBucket) UploadObject(ctx context.Context, key string, file io.Reader) error {
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.uploaded[key] = data
	return nil
}

func (f *fakeBucket) DeleteObject(ctx context.Context, key string) error { return nil }

func (f *fakeBucket) PublicURL(key string) string { return "https://cdn.test/" + key }
