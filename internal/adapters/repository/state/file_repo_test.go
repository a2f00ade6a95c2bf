package state

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

var member = common.HexToAddress("0x00000000000000000000000000000000000000b1")

func addMember(ctx context.Context, r *FileRepository) error {
	return r.Update(ctx, func(_ context.Context, st *models.State) error {
		st.Council[member] = time.Unix(0, 0).UTC()
		return nil
	})
}

func TestFileRepositoryPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), TrebGovDir, StateFile)

	r, err := NewFileRepository(path)
	require.NoError(t, err)
	require.NoError(t, addMember(ctx, r))

	_, err = os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")

	reopened, err := NewFileRepository(path)
	require.NoError(t, err)
	err = reopened.View(ctx, func(st *models.State) error {
		assert.Contains(t, st.Council, member)
		return nil
	})
	require.NoError(t, err)
}

func TestFileRepositoryRollback(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), StateFile)
	r, err := NewFileRepository(path)
	require.NoError(t, err)

	boom := errors.New("boom")
	committed := false
	err = r.Update(ctx, func(ctx context.Context, st *models.State) error {
		st.Council[member] = time.Now()
		r.OnCommit(ctx, func() { committed = true })
		// a nested update joins the outer transaction
		return r.Update(ctx, func(_ context.Context, inner *models.State) error {
			assert.Same(t, st, inner)
			return boom
		})
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, committed, "callbacks are dropped on rollback")

	err = r.View(ctx, func(st *models.State) error {
		assert.NotContains(t, st.Council, member)
		return nil
	})
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is written on rollback")
}

func TestFileRepositoryOnCommit(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRepository()

	var order []string
	err := r.Update(ctx, func(ctx context.Context, st *models.State) error {
		r.OnCommit(ctx, func() { order = append(order, "first") })
		err := r.Update(ctx, func(ctx context.Context, _ *models.State) error {
			r.OnCommit(ctx, func() { order = append(order, "nested") })
			return nil
		})
		order = append(order, "body")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "first", "nested"}, order)

	ran := false
	r.OnCommit(ctx, func() { ran = true })
	assert.True(t, ran, "outside a transaction callbacks run immediately")
}

func TestFileRepositoryViewInsideUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRepository()

	err := r.Update(ctx, func(ctx context.Context, st *models.State) error {
		st.Council[member] = time.Now()
		return r.View(ctx, func(view *models.State) error {
			assert.Contains(t, view.Council, member, "views inside a transaction see the working copy")
			return nil
		})
	})
	require.NoError(t, err)

	snap, err := r.Snapshot()
	require.NoError(t, err)
	delete(snap.Council, member)
	err = r.View(ctx, func(st *models.State) error {
		assert.Contains(t, st.Council, member, "snapshots are private copies")
		return nil
	})
	require.NoError(t, err)
}

func TestFileRepositoryReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), StateFile)

	reader, err := NewFileRepository(path)
	require.NoError(t, err)
	writer, err := NewFileRepository(path)
	require.NoError(t, err)
	require.NoError(t, addMember(ctx, writer))

	err = reader.View(ctx, func(st *models.State) error {
		assert.NotContains(t, st.Council, member)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, reader.Reload())
	err = reader.View(ctx, func(st *models.State) error {
		assert.Contains(t, st.Council, member)
		return nil
	})
	require.NoError(t, err)
}

func TestFileRepositoryConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), StateFile)

	// both repositories load the empty state before either commits
	a, err := NewFileRepository(path)
	require.NoError(t, err)
	b, err := NewFileRepository(path)
	require.NoError(t, err)

	const perWriter = 10
	var wg sync.WaitGroup
	for w, r := range []*FileRepository{a, b} {
		wg.Add(1)
		go func(w int, r *FileRepository) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				m := common.BigToAddress(big.NewInt(int64(w*perWriter + i + 1)))
				err := r.Update(ctx, func(_ context.Context, st *models.State) error {
					st.Council[m] = time.Unix(0, 0).UTC()
					return nil
				})
				assert.NoError(t, err)
			}
		}(w, r)
	}
	wg.Wait()

	reopened, err := NewFileRepository(path)
	require.NoError(t, err)
	err = reopened.View(ctx, func(st *models.State) error {
		assert.Len(t, st.Council, 2*perWriter, "no commit is lost")
		return nil
	})
	require.NoError(t, err)

	// a stale repository still builds on the latest file
	err = a.Update(ctx, func(_ context.Context, st *models.State) error {
		assert.Len(t, st.Council, 2*perWriter)
		return nil
	})
	require.NoError(t, err)
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileRepository(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse state file")
}

func TestProvideFileRepository(t *testing.T) {
	dir := t.TempDir()

	r, err := ProvideFileRepository(&config.RuntimeConfig{DataDir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, StateFile), r.Path())

	explicit := filepath.Join(dir, "custom.json")
	r, err = ProvideFileRepository(&config.RuntimeConfig{DataDir: dir, StatePath: explicit})
	require.NoError(t, err)
	assert.Equal(t, explicit, r.Path())

	r, err = ProvideFileRepository(&config.RuntimeConfig{})
	require.NoError(t, err)
	assert.Empty(t, r.Path())
}
