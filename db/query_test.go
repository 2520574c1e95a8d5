package db

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/sqlgate"
)

// fakeRows is an in-memory pgx.Rows.
type fakeRows struct {
	cols   []string
	data   [][]any
	i      int
	err    error
	closed bool
}

var _ pgx.Rows = (*fakeRows)(nil)

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }
func (r *fakeRows) Scan(dest ...any) error        { return errors.New("not implemented") }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *fakeRows) Next() bool {
	if r.closed || r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.i-1], nil
}

func TestCollectRows(t *testing.T) {
	rows := &fakeRows{
		cols: []string{"id", "name"},
		data: [][]any{{int64(1), "ada"}, {int64(2), "bob"}},
	}

	res, err := collectRows(rows, 0)
	require.NoError(t, err)

	want := &QueryResult{
		Columns:  []string{"id", "name"},
		Rows:     []map[string]any{{"id": int64(1), "name": "ada"}, {"id": int64(2), "name": "bob"}},
		RowCount: 2,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("collectRows() mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, rows.closed)
}

func TestCollectRows_Truncates(t *testing.T) {
	rows := &fakeRows{
		cols: []string{"n"},
		data: [][]any{{1}, {2}, {3}},
	}

	res, err := collectRows(rows, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowCount)
	assert.Len(t, res.Rows, 2)
	assert.True(t, res.Truncated)
}

func TestCollectRows_EmptyResultIsNotNil(t *testing.T) {
	res, err := collectRows(&fakeRows{cols: []string{"n"}}, 10)
	require.NoError(t, err)

	assert.NotNil(t, res.Rows)
	assert.Equal(t, 0, res.RowCount)
	assert.False(t, res.Truncated)
}

func TestCollectRows_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := collectRows(&fakeRows{cols: []string{"n"}, err: boom}, 10)
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}

	var num pgtype.Numeric
	require.NoError(t, num.Scan("12.5"))

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"uuid", id, "12345678-9abc-def0-1234-56789abcdef0"},
		{"utf8 bytes", []byte("hi"), "hi"},
		{"binary bytes", []byte{0xff, 0x00}, `\xff00`},
		{"numeric", num, 12.5},
		{"null numeric", pgtype.Numeric{}, nil},
		{"time passes through", ts, ts},
		{"duration", 90 * time.Second, "1m30s"},
		{"stringer", netip.MustParsePrefix("10.0.0.0/8"), "10.0.0.0/8"},
		{"int", int32(7), int32(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.in))
		})
	}
}

func TestQuery_RejectsBeforeTouchingDatabase(t *testing.T) {
	// No pool: reaching the database would panic.
	d := &DB{cfg: config.Database{MaxRows: 10}}

	_, err := d.Query(context.Background(), "SELECT 1; DROP TABLE users")

	var rejected *sqlgate.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "drop", rejected.Verdict.Keyword)
}

func TestQuery_Empty(t *testing.T) {
	d := &DB{cfg: config.Database{MaxRows: 10}}
	_, err := d.Query(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSchema(t *testing.T) {
	s := Schema{
		"users":  {{Name: "id", DataType: "integer"}, {Name: "email", DataType: "text"}},
		"orders": {{Name: "id", DataType: "integer"}},
	}

	assert.Equal(t, []string{"orders", "users"}, s.Tables())
}

func TestConnector_RequiresURL(t *testing.T) {
	c := NewConnector(config.Database{})
	defer c.Close()

	_, err := c.Get(context.Background(), "")
	assert.ErrorIs(t, err, config.ErrNoDatabase)
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), config.Database{}, "postgres://%zz")
	assert.Error(t, err)
}
