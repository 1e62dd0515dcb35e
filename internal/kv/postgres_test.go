package kv

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresStore(db), mock
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value")).
		WithArgs("miraj-xheat-products").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("[]"))

	v, ok, err := s.Get(ctx, "miraj-xheat-products")
	if err != nil || !ok || v != "[]" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, ok, err = s.Get(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value")).
		WithArgs("k").
		WillReturnError(boom)

	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("get err=%v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStore_SetRemove(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv_entries")).
		WithArgs("k", "v").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM kv_entries")).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
