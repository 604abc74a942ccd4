package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/devhub-se/apiserver/types"
)

// Linking a provider identity to an existing account goes through Update,
// so the statement must write the oauth columns or the link is lost.
func TestUserUpdatePersistsOAuthLink(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WithArgs(
			"alice",
			"alice@example.com",
			"",
			"user",
			"",
			"github",
			"42",
			"",
			"",
			"",
			"",
			sqlmock.AnyArg(),
			1,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.Update(context.Background(), types.User{
		ID:            1,
		Username:      "alice",
		Email:         "alice@example.com",
		Role:          "user",
		OAuthProvider: "github",
		OAuthID:       "42",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.OAuthProvider != "github" || updated.OAuthID != "42" {
		t.Fatalf("expected oauth link on returned user, got %q/%q", updated.OAuthProvider, updated.OAuthID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = repo.Update(context.Background(), types.User{ID: 99, Username: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
