package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestRegisterAndVerify(t *testing.T) {
	mock := newMock(t)
	svc := NewService("secret", mock)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "a@example.com", "alice", pgxmock.AnyArg(), "Alice").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	user, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email: "a@example.com", Username: "alice", Password: "pw", DisplayName: "Alice",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || tokens.AccessToken == "" {
		t.Fatalf("incomplete registration result")
	}

	userID, err := svc.VerifyAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("token user mismatch")
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := NewService("secret", nil)
	if _, _, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.c"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLogin(t *testing.T) {
	mock := newMock(t)
	svc := NewService("secret", mock)

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.DefaultCost)
	mock.ExpectQuery(`SELECT id, email, username, password_hash`).
		WithArgs("a@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "password_hash", "display_name", "created_at"}).
			AddRow("user-1", "a@example.com", "alice", string(hash), "", time.Now()))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	user, tokens, err := svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "user-1" || tokens.RefreshToken == "" {
		t.Fatalf("unexpected login result")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	mock := newMock(t)
	svc := NewService("secret", mock)

	hash, _ := bcrypt.GenerateFromPassword([]byte("other"), bcrypt.DefaultCost)
	mock.ExpectQuery(`SELECT id, email, username, password_hash`).
		WithArgs("a@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "password_hash", "display_name", "created_at"}).
			AddRow("user-1", "a@example.com", "alice", string(hash), "", time.Now()))

	if _, _, err := svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "pw"}); err == nil {
		t.Fatalf("expected credentials error")
	}
}

func TestVerifyAccessBadToken(t *testing.T) {
	svc := NewService("secret", nil)
	if _, err := svc.VerifyAccess("not-a-token"); err == nil {
		t.Fatalf("expected parse error")
	}
}
