package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sire-reportes/internal/domain"
	"github.com/jhoicas/sire-reportes/internal/domain/entity"
	"github.com/jhoicas/sire-reportes/pkg/config"
)

// fakeQuerier registra los Exec y devuelve la etiqueta/error configurados.
type fakeQuerier struct {
	tag  pgconn.CommandTag
	err  error
	sql  []string
	args [][]any
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return f.tag, f.err
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return nil, f.err
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func sampleRun() *entity.Run {
	return &entity.Run{
		ID:        uuid.New().String(),
		Periodo:   "202512",
		Status:    entity.RunStatusRunning,
		StartedAt: time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC),
	}
}

func TestRunRepo_Start(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("INSERT 0 1")}
	run := sampleRun()

	require.NoError(t, NewRunRepository(q).Start(context.Background(), run))
	require.Len(t, q.args, 1)
	assert.Contains(t, q.sql[0], "INSERT INTO sire_runs")
	assert.Equal(t, []any{run.ID, "202512", entity.RunStatusRunning, run.StartedAt}, q.args[0])
}

func TestRunRepo_StartDuplicado(t *testing.T) {
	q := &fakeQuerier{err: &pgconn.PgError{Code: "23505", Message: "duplicate key"}}

	err := NewRunRepository(q).Start(context.Background(), sampleRun())
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestRunRepo_Finish(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	run := sampleRun()
	fin := run.StartedAt.Add(7 * time.Second)
	run.FinishedAt = &fin
	run.Status = entity.RunStatusFailed
	run.NumTicket = "555"
	run.ErrorKind = "TIMEOUT"
	run.ErrorMessage = strings.Repeat("x", 5000)

	require.NoError(t, NewRunRepository(q).Finish(context.Background(), run))
	args := q.args[0]
	require.Len(t, args, 8)
	assert.Equal(t, run.ID, args[0])
	assert.Equal(t, "555", *(args[1].(*string)))
	assert.Equal(t, entity.RunStatusFailed, args[2])
	assert.Len(t, *(args[4].(*string)), maxErrorMessage)
	assert.Equal(t, &fin, args[7])
}

func TestRunRepo_FinishCamposVaciosComoNull(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	run := sampleRun()
	run.Status = entity.RunStatusCompleted

	require.NoError(t, NewRunRepository(q).Finish(context.Background(), run))
	args := q.args[0]
	assert.Nil(t, args[1])
	assert.Nil(t, args[3])
	assert.Nil(t, args[4])
}

func TestRunRepo_FinishSinFila(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}

	err := NewRunRepository(q).Finish(context.Background(), sampleRun())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunRepo_ListByPeriodLimites(t *testing.T) {
	q := &fakeQuerier{err: errors.New("sin conexión")}
	repo := NewRunRepository(q)

	for _, tc := range []struct{ in, want int }{{0, defaultListLimit}, {-3, defaultListLimit}, {5, 5}, {1000, maxListLimit}} {
		_, err := repo.ListByPeriod(context.Background(), "202512", tc.in)
		require.Error(t, err)
		last := q.args[len(q.args)-1]
		assert.Equal(t, tc.want, last[1])
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "añ", truncate("añoñ", 2))
}

func TestDatabaseURLWithIPv4_IPLiteral(t *testing.T) {
	assert.Equal(t, "postgres://u:p@127.0.0.1:5432/sire", databaseURLWithIPv4("postgres://u:p@127.0.0.1/sire"))
	_, err := resolveIPv4("::1")
	assert.Error(t, err)
}

func TestNewPool_SinConfiguracion(t *testing.T) {
	_, err := NewPool(context.Background(), config.DBConfig{})
	assert.Error(t, err)
}

// Integración: solo con TEST_DATABASE_URL definido.
func TestRunRepo_Integracion(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, NewTxRunner(pool).Run(ctx, func(q Querier) error {
		return NewRunRepository(q).EnsureSchema(ctx)
	}))

	repo := NewRunRepository(pool)
	run := sampleRun()
	run.Periodo = "199901"
	require.NoError(t, repo.Start(ctx, run))
	t.Cleanup(func() { _, _ = pool.Exec(ctx, "DELETE FROM sire_runs WHERE id = $1", run.ID) })

	fin := run.StartedAt.Add(time.Second)
	run.FinishedAt = &fin
	run.Status = entity.RunStatusCompleted
	run.NumTicket = "555"
	run.Chars = 11
	require.NoError(t, repo.Finish(ctx, run))

	list, err := repo.ListByPeriod(ctx, "199901", 10)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, run.ID, list[0].ID)
	assert.Equal(t, "555", list[0].NumTicket)
	assert.Equal(t, entity.RunStatusCompleted, list[0].Status)
	require.NotNil(t, list[0].FinishedAt)
}
