package repos

import (
	"context"
	"database/sql"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	selectItem = `SELECT item_value FROM local_storage WHERE session_id=? AND item_key=?`
	upsertItem = `
	  INSERT INTO local_storage(session_id, item_key, item_value, updated_at)
	  VALUES(?, ?, ?, ?)
	  ON CONFLICT(session_id, item_key) DO UPDATE SET item_value = excluded.item_value, updated_at = excluded.updated_at
	`
)

// LocalStorageRepo keeps the per-browser key/value pairs the personalization
// store reads and writes. Values are opaque strings.
type LocalStorageRepo struct {
	db *sqlx.DB
	// read-modify-write updates of one session run one at a time
	locks [32]sync.Mutex
}

func NewLocalStorageRepo(db *sqlx.DB) *LocalStorageRepo { return &LocalStorageRepo{db: db} }

func (r *LocalStorageRepo) lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &r.locks[h.Sum32()%uint32(len(r.locks))]
}

func (r *LocalStorageRepo) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	var v string
	err := r.db.GetContext(ctx, &v, r.db.Rebind(selectItem), sessionID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *LocalStorageRepo) Set(ctx context.Context, sessionID, key, value string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(upsertItem), sessionID, key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Update reads the item, hands it to fn and stores what fn returns, in one
// transaction. ok is false when the item does not exist yet.
func (r *LocalStorageRepo) Update(ctx context.Context, sessionID, key string, fn func(old string, ok bool) (string, error)) error {
	mu := r.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var old string
	ok := true
	if err := tx.GetContext(ctx, &old, tx.Rebind(selectItem), sessionID, key); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		ok = false
	}
	v, err := fn(old, ok)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(upsertItem), sessionID, key, v, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *LocalStorageRepo) Remove(ctx context.Context, sessionID, key string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM local_storage WHERE session_id=? AND item_key=?`), sessionID, key)
	return err
}

// For returns the storage view of one browser session.
func (r *LocalStorageRepo) For(sessionID string) *SessionStorage {
	return &SessionStorage{repo: r, sessionID: sessionID}
}

// SessionStorage is the key/value storage of a single browser.
type SessionStorage struct {
	repo      *LocalStorageRepo
	sessionID string
}

func (s *SessionStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, s.sessionID, key)
}

func (s *SessionStorage) SetItem(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.sessionID, key, value)
}

func (s *SessionStorage) UpdateItem(ctx context.Context, key string, fn func(old string, ok bool) (string, error)) error {
	return s.repo.Update(ctx, s.sessionID, key, fn)
}

func (s *SessionStorage) RemoveItem(ctx context.Context, key string) error {
	return s.repo.Remove(ctx, s.sessionID, key)
}
