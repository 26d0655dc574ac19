package memory

import (
	"context"
	"sync"
)

type journalKey struct{}

// journal collects undo steps for the writes of one unit of work.
type journal struct {
	mu    sync.Mutex
	undos []func()
}

// record registers an undo step when ctx carries a journal. The repository
// write lock is held by the caller.
func record(ctx context.Context, undo func()) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	j.mu.Lock()
	j.undos = append(j.undos, undo)
	j.mu.Unlock()
}

// TxManager gives the in-memory repository all-or-nothing units of work.
// Units run one at a time, so no unit observes or builds on another unit's
// uncommitted writes. Nested calls join the outer unit.
type TxManager struct {
	repo *UserRepository
}

func NewTxManager(repo *UserRepository) *TxManager {
	return &TxManager{repo: repo}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	m.repo.txMu.Lock()
	defer m.repo.txMu.Unlock()

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			m.rollback(j)
			panic(p)
		}
		if err != nil {
			m.rollback(j)
		}
	}()
	return fn(context.WithValue(ctx, journalKey{}, j))
}

func (m *TxManager) rollback(j *journal) {
	j.mu.Lock()
	defer j.mu.Unlock()
	m.repo.mu.Lock()
	defer m.repo.mu.Unlock()
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
	j.undos = nil
}
