package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/cache"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/email"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/storage"
	"gorm.io/gorm"
)

// MockContainer is a fully wired container for tests. External services are
// replaced by in-memory fakes that tests can inspect and steer.
type MockContainer struct {
	*Container

	FormBackend *formio.MemoryBackend
	AuthMock    *auth.MockAuthService
	Store       *cache.MemoryStore
	Files       *MockUploader
}

// NewMock wires every service over db with in-memory fakes. Call Cleanup
// when done to stop the export workers.
func NewMock(db *gorm.DB, notifier email.Notifier) (*MockContainer, error) {
	m := &MockContainer{
		Container:   New(),
		FormBackend: formio.NewMemoryBackend(),
		AuthMock:    auth.NewMockAuthService(),
		Store:       cache.NewMemoryStore(),
		Files:       &MockUploader{},
	}
	m.WithDB(db).
		WithCache(m.Store).
		WithForms(m.FormBackend).
		WithNotifier(notifier).
		WithUploader(m.Files).
		WithAuthService(m.AuthMock)

	cfg := &config.Config{
		BaseURL: "http://localhost:8787",
		Exports: config.ExportConfig{Workers: 1, QueueSize: 4},
	}
	if err := m.Wire(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// MockUploader keeps uploaded exports in memory.
type MockUploader struct {
	mu    sync.Mutex
	files map[string][]byte
}

var _ storage.ExportUploader = (*MockUploader)(nil)

func (u *MockUploader) UploadExport(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.files == nil {
		u.files = make(map[string][]byte)
	}
	key := fmt.Sprintf("exports/%s/%s", userID, filename)
	u.files[key] = append([]byte(nil), data...)
	return &storage.UploadResult{
		Key:       key,
		URL:       "https://exports.example.com/" + key,
		Bucket:    "test",
		Size:      int64(len(data)),
		ExpiresAt: time.Now().Add(storage.DefaultLinkTTL),
	}, nil
}

// File returns an uploaded export by key.
func (u *MockUploader) File(key string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.files[key]
	return data, ok
}
