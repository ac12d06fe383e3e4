package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	// Start client in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Stop should complete successfully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

// TestTask is a simple task for testing
type TestTask struct {
	Value string `json:"value"`
}

func (t TestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	// Create and register a test queue
	executed := make(chan string, 1)
	queue := backlite.NewQueue(func(ctx context.Context, task TestTask) error {
		executed <- task.Value
		return nil
	})
	client.Register(queue)

	// Start client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	// Enqueue a task
	ids, err := client.Add(TestTask{Value: "hello"}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	// Wait for task to be executed
	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestRecountBookPagesTaskConfig(t *testing.T) {
	task := RecountBookPagesTask{BookID: 123}
	cfg := task.Config()

	assert.Equal(t, "recount_book_pages", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestCloseStaleSessionsTaskConfig(t *testing.T) {
	task := CloseStaleSessionsTask{MaxIdleMinutes: 120}
	cfg := task.Config()

	assert.Equal(t, "close_stale_sessions", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Timeout)
}

type stubSessionCloser struct {
	gotMaxAge time.Duration
	closed    int64
}

func (s *stubSessionCloser) CloseStaleSessions(maxAge time.Duration, now time.Time) (int64, error) {
	s.gotMaxAge = maxAge
	return s.closed, nil
}

func TestCloseStaleSessionsProcessor(t *testing.T) {
	t.Run("uses configured idle window", func(t *testing.T) {
		closer := &stubSessionCloser{closed: 3}
		proc := CloseStaleSessionsProcessor(closer)

		err := proc(context.Background(), CloseStaleSessionsTask{MaxIdleMinutes: 45})
		require.NoError(t, err)
		assert.Equal(t, 45*time.Minute, closer.gotMaxAge)
	})

	t.Run("defaults to two hours", func(t *testing.T) {
		closer := &stubSessionCloser{}
		proc := CloseStaleSessionsProcessor(closer)

		err := proc(context.Background(), CloseStaleSessionsTask{})
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, closer.gotMaxAge)
	})

	t.Run("fails without a closer", func(t *testing.T) {
		proc := CloseStaleSessionsProcessor(nil)
		err := proc(context.Background(), CloseStaleSessionsTask{})
		assert.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
