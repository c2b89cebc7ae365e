package db

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestUpsertDoNothing(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectExec(`INSERT INTO "approved_officials" \("phone_number"\) VALUES \(\$1\), \(\$2\) ON CONFLICT \("phone_number"\) DO NOTHING`).
		WithArgs("+15550001", "+15550002").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	n, err := Upsert(context.Background(), mock, UpsertConfig{
		Table:        "approved_officials",
		Columns:      []string{"phone_number"},
		ConflictKeys: []string{"phone_number"},
	}, [][]any{{"+15550001"}, {"+15550002"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertDoUpdate(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectExec(`ON CONFLICT \("id"\) DO UPDATE SET "role" = EXCLUDED\."role"`).
		WithArgs("p-1", "official").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := Upsert(context.Background(), mock, UpsertConfig{
		Table:        "profiles",
		Columns:      []string{"id", "role"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"role"},
	}, [][]any{{"p-1", "official"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertValidation(t *testing.T) {
	mock := newMockPool(t)
	ctx := context.Background()

	n, err := Upsert(ctx, mock, UpsertConfig{Table: "t", Columns: []string{"a"}, ConflictKeys: []string{"a"}}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = Upsert(ctx, mock, UpsertConfig{Table: "t", ConflictKeys: []string{"a"}}, [][]any{{1}})
	assert.Error(t, err)

	_, err = Upsert(ctx, mock, UpsertConfig{Table: "t", Columns: []string{"a"}}, [][]any{{1}})
	assert.Error(t, err)

	_, err = Upsert(ctx, mock, UpsertConfig{Table: "t", Columns: []string{"a"}, ConflictKeys: []string{"a"}}, [][]any{{1, 2}})
	assert.Error(t, err)
}
