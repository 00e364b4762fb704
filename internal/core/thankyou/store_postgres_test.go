package thankyou

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intravine/kudos/internal/platform/apperr"
)

func TestBackfillZeroTotals(t *testing.T) {
	totals := backfillZeroTotals(map[int]int{2: 7}, []int{1, 2, 3})

	assert.Equal(t, map[int]int{1: 0, 2: 7, 3: 0}, totals)
}

func TestBackfillZeroTotals_NoFilterLeavesRowsAlone(t *testing.T) {
	totals := backfillZeroTotals(map[int]int{4: 2, 9: 1}, nil)

	assert.Equal(t, map[int]int{4: 2, 9: 1}, totals)
}

// fakeDB hands out a scripted transaction so the write paths can be driven
// to failure without a server.
type fakeDB struct {
	tx *fakeTx
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return db.tx, nil
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not scripted")
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{err: errors.New("not scripted")}
}

type errRow struct {
	err error
}

func (r errRow) Scan(dest ...any) error { return r.err }

// fakeTx fails its nth Exec call and records the commit/rollback outcome.
type fakeTx struct {
	failExecOn int
	zeroRows   bool
	scanErr    error

	execCalls  int
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	tx.execCalls++
	if tx.failExecOn != 0 && tx.execCalls == tx.failExecOn {
		return pgconn.CommandTag{}, errors.New("connection reset")
	}
	if tx.zeroRows {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{err: tx.scanErr}
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.rolledBack = true
	return nil
}

func (tx *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, errors.New("not scripted") }

func (tx *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not scripted")
}

func (tx *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (tx *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (tx *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not scripted")
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not scripted")
}

func (tx *fakeTx) Conn() *pgx.Conn { return nil }

func newWriteTestRepository(tx *fakeTx) *PostgresRepository {
	return NewPostgresRepository(&fakeDB{tx: tx}, nil, slog.Default())
}

func TestDelete_RollsBackWhenAJunctionDeleteFails(t *testing.T) {
	// First junction clears, the second one dies mid-transaction.
	tx := &fakeTx{failExecOn: 2}
	repository := newWriteTestRepository(tx)

	err := repository.Delete(context.Background(), 7)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "STORAGE_ERROR"))
	assert.True(t, tx.rolledBack, "failed delete must roll back")
	assert.False(t, tx.committed, "failed delete must not commit")
}

func TestSave_RollsBackWhenInsertFails(t *testing.T) {
	tx := &fakeTx{scanErr: errors.New("connection reset")}
	repository := newWriteTestRepository(tx)

	_, err := repository.Save(context.Background(), &ThankYou{
		Description: "thanks",
		DateCreated: time.Now().UTC(),
	})

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "STORAGE_ERROR"))
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestSave_UpdateOfMissingRowIsNotFound(t *testing.T) {
	// Exec reports zero affected rows for the UPDATE.
	tx := &fakeTx{zeroRows: true}
	repository := newWriteTestRepository(tx)

	_, err := repository.Save(context.Background(), &ThankYou{
		ID:          404,
		Description: "reworded",
	})

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}
