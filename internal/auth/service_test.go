package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/karibu-app/karibu-backend/pkg/auth"
	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*models.User{}}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, exists := f.byEmail[user.Email]; exists {
		return nil, gorm.ErrDuplicatedKey
	}
	user.ID = uuid.New()
	f.byEmail[user.Email] = user
	return user, nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeSessions struct {
	issued  map[string]uuid.UUID
	revoked []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{issued: map[string]uuid.UUID{}}
}

func (f *fakeSessions) Issue(ctx context.Context, accessID string, userID uuid.UUID) error {
	f.issued[accessID] = userID
	return nil
}

func (f *fakeSessions) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-1234",
		Issuer:            "karibu-test",
		ExpirationMinutes: 15,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T) (Service, *fakeUserStore, *fakeSessions) {
	t.Helper()
	store := newFakeUserStore()
	sessions := newFakeSessions()
	svc, err := NewService(store, sessions, testJWTConfig(), testPasswordConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store, sessions
}

func TestRegisterCreatesClientAccount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    " Alice@Example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != enums.UserRoleClient {
		t.Fatalf("expected client role, got %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse" {
		t.Fatal("password must be stored hashed")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "short",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	input := RegisterInput{Email: "alice@example.com", Password: "correct horse"}

	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginMintsTokenAndOpensSession(t *testing.T) {
	t.Parallel()

	svc, _, sessions := newTestService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := svc.Login(ctx, "Alice@Example.com", "correct horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.User.ID != user.ID {
		t.Fatal("login returned the wrong account")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("minted token does not parse: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleClient {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, ok := sessions.issued[claims.ID]; !ok {
		t.Fatal("session not opened for the token's jti")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Login(ctx, "alice@example.com", "wrong horse")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	svc, _, sessions := newTestService(t)
	if err := svc.Logout(context.Background(), "jti-123"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-123" {
		t.Fatalf("session not revoked: %v", sessions.revoked)
	}
}
