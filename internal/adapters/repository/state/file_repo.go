package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

const (
	TrebGovDir = ".trebgov"
	StateFile  = "state.json"

	lockRetryDelay = 20 * time.Millisecond
)

type txKey struct{}

// tx is the working copy of one Update and the callbacks waiting on its commit
type tx struct {
	st       *models.State
	onCommit []func()
}

// FileRepository keeps the governance state in a single json file.
// Updates are serialized across processes by an exclusive lock on
// <path>.lock, start from the file's current contents and commit
// atomically: the working copy replaces the committed state only after it
// has been written to disk.
type FileRepository struct {
	path      string
	mu        sync.Mutex
	committed atomic.Pointer[models.State]
}

// NewFileRepository loads the state file at path. An empty path keeps the
// state in memory only.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{path: path}
	st, err := r.load()
	if err != nil {
		return nil, err
	}
	r.committed.Store(st)
	return r, nil
}

// NewInMemoryRepository creates a repository that never touches disk
func NewInMemoryRepository() *FileRepository {
	r := &FileRepository{}
	r.committed.Store(models.NewState())
	return r
}

// ProvideFileRepository creates the repository from runtime configuration
func ProvideFileRepository(cfg *config.RuntimeConfig) (*FileRepository, error) {
	path := cfg.StatePath
	if path == "" && cfg.DataDir != "" {
		path = filepath.Join(cfg.DataDir, StateFile)
	}
	return NewFileRepository(path)
}

// Path returns the backing file, empty when in memory
func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) load() (*models.State, error) {
	if r.path == "" {
		return models.NewState(), nil
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewState(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	var st models.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", r.path, err)
	}
	st.Normalize()
	return &st, nil
}

func (r *FileRepository) save(st *models.State) error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

func clone(st *models.State) (*models.State, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to copy state: %w", err)
	}
	var out models.State
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to copy state: %w", err)
	}
	out.Normalize()
	return &out, nil
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// View runs fn against the state visible to ctx. Inside an Update that is the
// working copy; otherwise it is the last committed state, which fn must not modify.
func (r *FileRepository) View(ctx context.Context, fn func(st *models.State) error) error {
	if t := txFrom(ctx); t != nil {
		return fn(t.st)
	}
	return fn(r.committed.Load())
}

// Update runs fn inside a transaction, joining the one carried by ctx if any
func (r *FileRepository) Update(ctx context.Context, fn func(ctx context.Context, st *models.State) error) error {
	if t := txFrom(ctx); t != nil {
		return fn(ctx, t.st)
	}

	t, err := r.commit(ctx, fn)
	if err != nil {
		return err
	}
	for _, cb := range t.onCommit {
		cb()
	}
	return nil
}

func (r *FileRepository) commit(ctx context.Context, fn func(ctx context.Context, st *models.State) error) (*tx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lockFile(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	working, err := r.latest()
	if err != nil {
		return nil, err
	}
	t := &tx{st: working}
	if err := fn(context.WithValue(ctx, txKey{}, t), working); err != nil {
		return nil, err
	}
	if err := r.save(working); err != nil {
		return nil, err
	}
	r.committed.Store(working)
	return t, nil
}

// lockFile takes the cross-process lock guarding the state file
func (r *FileRepository) lockFile(ctx context.Context) (func(), error) {
	if r.path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	fl := flock.New(r.path + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock state file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock state file %s", r.path)
	}
	return func() { _ = fl.Unlock() }, nil
}

// latest returns a private working copy of the newest state: the file's
// contents when backed by disk, the committed state otherwise
func (r *FileRepository) latest() (*models.State, error) {
	if r.path == "" {
		return clone(r.committed.Load())
	}
	return r.load()
}

// OnCommit defers fn until the transaction in ctx commits
func (r *FileRepository) OnCommit(ctx context.Context, fn func()) {
	if t := txFrom(ctx); t != nil {
		t.onCommit = append(t.onCommit, fn)
		return
	}
	fn()
}

// Reload replaces the committed state with the file's current contents,
// picking up commits made by other processes
func (r *FileRepository) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.load()
	if err != nil {
		return err
	}
	r.committed.Store(st)
	return nil
}

// Snapshot returns a private copy of the committed state
func (r *FileRepository) Snapshot() (*models.State, error) {
	return clone(r.committed.Load())
}

var _ usecase.StateStore = (*FileRepository)(nil)
