package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lexhewitt/mcgann-boxing-sub000/config"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/jwt"
)

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	revoked map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

// ── helpers ──

func setupTestAuthService() (AuthService, *testEnv, *mockBlacklist, *jwt.Manager) {
	env := newTestEnv()
	jwtMgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	blacklist := newMockBlacklist()
	svc := NewAuthService(env.repo, jwtMgr, blacklist, zap.NewNop())
	return svc, env, blacklist, jwtMgr
}

func createTestUser(env *testEnv, id, email, password, role string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       id,
		Name:         "Test " + id,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	env.users.users[id] = user
	return user
}

// ── Register ──

func TestRegister_Success(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Jo Bloggs",
		Email:    "Jo@Example.com",
		Phone:    "+447700900123",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register should succeed: %v", err)
	}
	if resp.User.Role != model.RoleMember {
		t.Errorf("new accounts are members, got %s", resp.User.Role)
	}
	if resp.User.Email != "jo@example.com" {
		t.Errorf("email should be lower-cased, got %s", resp.User.Email)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("tokens should be issued")
	}
	stored, _ := env.users.GetByEmail(context.Background(), "jo@example.com")
	if stored == nil || bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")) != nil {
		t.Error("password should be stored as a bcrypt hash")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	createTestUser(env, "u1", "taken@example.com", "password123", model.RoleMember)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Someone",
		Email:    "TAKEN@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

// ── Login ──

func TestLogin_Success(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	createTestUser(env, "u1", "member@example.com", "password123", model.RoleMember)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "member@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login should succeed: %v", err)
	}
	if resp.ExpiresIn != 900 {
		t.Errorf("expected ExpiresIn=900, got %d", resp.ExpiresIn)
	}
	if resp.User.ID != "u1" {
		t.Errorf("unexpected user %s", resp.User.ID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	createTestUser(env, "u1", "member@example.com", "password123", model.RoleMember)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "member@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email must look like a bad password, got %v", err)
	}
}

func TestLogin_CoachCarriesCoachID(t *testing.T) {
	svc, env, _, jwtMgr := setupTestAuthService()
	env.addCoach("coach-1", "Mick", 4500)
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	env.users.users["user-coach-1"].PasswordHash = string(hash)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "coach-1@ringside.test", Password: "password123"})
	if err != nil {
		t.Fatalf("Login should succeed: %v", err)
	}
	if resp.User.CoachID != "coach-1" {
		t.Errorf("expected coach id in profile, got %q", resp.User.CoachID)
	}
	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.CoachID != "coach-1" || claims.Role != model.RoleCoach {
		t.Errorf("unexpected claims %+v", claims)
	}
}

// ── RefreshToken / Logout ──

func TestRefreshToken_RotatesAndRevokes(t *testing.T) {
	svc, env, blacklist, jwtMgr := setupTestAuthService()
	createTestUser(env, "u1", "member@example.com", "password123", model.RoleMember)
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "member@example.com", Password: "password123"})

	refreshed, err := svc.RefreshToken(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken should succeed: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh token should rotate")
	}

	old, _ := jwtMgr.ParseToken(login.RefreshToken)
	if _, ok := blacklist.revoked[old.ID]; !ok {
		t.Error("presented refresh token should be revoked")
	}

	if _, err := svc.RefreshToken(context.Background(), login.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("replayed refresh token must fail, got %v", err)
	}
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	createTestUser(env, "u1", "member@example.com", "password123", model.RoleMember)
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "member@example.com", Password: "password123"})

	if _, err := svc.RefreshToken(context.Background(), login.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token must not refresh, got %v", err)
	}
}

func TestLogout_BlacklistsToken(t *testing.T) {
	svc, env, blacklist, jwtMgr := setupTestAuthService()
	createTestUser(env, "u1", "member@example.com", "password123", model.RoleMember)
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "member@example.com", Password: "password123"})

	claims, _ := jwtMgr.ParseToken(login.AccessToken)
	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	ttl, ok := blacklist.revoked[claims.ID]
	if !ok {
		t.Fatal("access token should be blacklisted")
	}
	if ttl <= 0 || ttl > 15*time.Minute {
		t.Errorf("blacklist entry should live until expiry, got %s", ttl)
	}
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()
	if _, err := svc.GetCurrentUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
