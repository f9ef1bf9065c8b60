package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"storefront/internal/clients/mail"
	"storefront/internal/repos"
	"storefront/internal/requestdata"
	"storefront/internal/testutil"
	"storefront/internal/types"
	"storefront/internal/uow"
)

type authFixture struct {
	db  *gorm.DB
	svc AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gdb := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	unit := uow.New(gdb, log)
	svc := NewAuthService(
		gdb, log, unit,
		repos.NewUserRepo(gdb, log),
		repos.NewUserTokenRepo(gdb, log),
		repos.NewPasswordResetTokenRepo(gdb, log),
		mail.Disabled(log),
		"testsecret",
		"http://localhost:8080",
		time.Hour, 24*time.Hour, time.Hour,
	)
	return &authFixture{db: gdb, svc: svc}
}

func TestRegisterUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.RegisterUser(ctx, "Alice@Example.com ", "alice", "Sup3rSecret!")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized", user.Email)
	}
	if user.PasswordHash == "Sup3rSecret!" || user.PasswordHash == "" {
		t.Error("password stored unhashed")
	}

	_, err = f.svc.RegisterUser(ctx, "alice@example.com", "alice2", "An0therPass!")
	if !errors.Is(err, types.ErrEmailTaken) {
		t.Errorf("duplicate email: got %v, want ErrEmailTaken", err)
	}
}

func TestRegisterUserValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterUser(ctx, "not-an-email", "bob", "Sup3rSecret!"); !errors.Is(err, types.ErrInvalidEmail) {
		t.Errorf("bad email: got %v, want ErrInvalidEmail", err)
	}
	if _, err := f.svc.RegisterUser(ctx, "bob@example.com", "bob", "weakpass"); !errors.Is(err, types.ErrWeakPassword) {
		t.Errorf("weak password: got %v, want ErrWeakPassword", err)
	}
}

func TestLoginUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterUser(ctx, "alice@example.com", "alice", "Sup3rSecret!"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	access, refresh, err := f.svc.LoginUser(ctx, "alice@example.com", "Sup3rSecret!")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("empty tokens")
	}

	authedCtx, err := f.svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.TokenString != access || rd.RefreshToken != refresh {
		t.Errorf("request data = %+v", rd)
	}

	if _, _, err := f.svc.LoginUser(ctx, "alice@example.com", "WrongPass1!"); !errors.Is(err, types.ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := f.svc.LoginUser(ctx, "nobody@example.com", "Sup3rSecret!"); !errors.Is(err, types.ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginReplacesExistingSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterUser(ctx, "alice@example.com", "alice", "Sup3rSecret!"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	firstAccess, _, err := f.svc.LoginUser(ctx, "alice@example.com", "Sup3rSecret!")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, _, err := f.svc.LoginUser(ctx, "alice@example.com", "Sup3rSecret!"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := f.svc.SetContextFromToken(ctx, firstAccess); !errors.Is(err, types.ErrExpiredToken) {
		t.Errorf("old session token: got %v, want ErrExpiredToken", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterUser(ctx, "alice@example.com", "alice", "Sup3rSecret!"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	access, refresh, err := f.svc.LoginUser(ctx, "alice@example.com", "Sup3rSecret!")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	authedCtx, err := f.svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	newAccess, newRefresh, err := f.svc.RefreshUser(authedCtx)
	if err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	if newAccess == "" || newRefresh == refresh {
		t.Error("refresh did not rotate tokens")
	}

	// The old refresh token is gone after rotation.
	staleCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{RefreshToken: refresh})
	if _, _, err := f.svc.RefreshUser(staleCtx); !errors.Is(err, types.ErrInvalidToken) {
		t.Errorf("stale refresh: got %v, want ErrInvalidToken", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterUser(ctx, "alice@example.com", "alice", "Sup3rSecret!"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	access, _, err := f.svc.LoginUser(ctx, "alice@example.com", "Sup3rSecret!")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	authedCtx, err := f.svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}

	if err := f.svc.LogoutUser(authedCtx); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}
	if _, err := f.svc.SetContextFromToken(ctx, access); !errors.Is(err, types.ErrExpiredToken) {
		t.Errorf("after logout: got %v, want ErrExpiredToken", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterUser(ctx, "alice@example.com", "alice", "Sup3rSecret!"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if err := f.svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	// Unknown emails are silently accepted.
	if err := f.svc.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset unknown: %v", err)
	}

	var resetToken types.PasswordResetToken
	if err := f.db.First(&resetToken).Error; err != nil {
		t.Fatalf("load reset token: %v", err)
	}

	if err := f.svc.ResetPassword(ctx, resetToken.Token, "weak"); !errors.Is(err, types.ErrWeakPassword) {
		t.Errorf("weak new password: got %v, want ErrWeakPassword", err)
	}
	if err := f.svc.ResetPassword(ctx, resetToken.Token, "N3wSecret!!"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, _, err := f.svc.LoginUser(ctx, "alice@example.com", "Sup3rSecret!"); !errors.Is(err, types.ErrInvalidCredentials) {
		t.Errorf("old password still valid: %v", err)
	}
	if _, _, err := f.svc.LoginUser(ctx, "alice@example.com", "N3wSecret!!"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	// Single use.
	if err := f.svc.ResetPassword(ctx, resetToken.Token, "Y3tAnother!!"); !errors.Is(err, types.ErrExpiredToken) {
		t.Errorf("token reuse: got %v, want ErrExpiredToken", err)
	}
	if err := f.svc.ResetPassword(ctx, "bogus-token", "Y3tAnother!!"); !errors.Is(err, types.ErrInvalidToken) {
		t.Errorf("bogus token: got %v, want ErrInvalidToken", err)
	}
}

func TestExpiredResetToken(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	unit := uow.New(gdb, log)
	svc := NewAuthService(
		gdb, log, unit,
		repos.NewUserRepo(gdb, log),
		repos.NewUserTokenRepo(gdb, log),
		repos.NewPasswordResetTokenRepo(gdb, log),
		mail.Disabled(log),
		"testsecret",
		"http://localhost:8080",
		time.Hour, 24*time.Hour, -time.Minute,
	)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "alice@example.com", "alice", "Sup3rSecret!"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	var resetToken types.PasswordResetToken
	if err := gdb.First(&resetToken).Error; err != nil {
		t.Fatalf("load reset token: %v", err)
	}
	if err := svc.ResetPassword(ctx, resetToken.Token, "N3wSecret!!"); !errors.Is(err, types.ErrExpiredToken) {
		t.Errorf("expired token: got %v, want ErrExpiredToken", err)
	}
}
