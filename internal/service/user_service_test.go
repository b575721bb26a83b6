package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"kids-talk-go/internal/model"
	"kids-talk-go/pkg/token"
)

// fakeUserRepo 是 UserRepository 的内存实现。
type fakeUserRepo struct {
	users  map[string]*model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.Username] = user
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	if user, ok := r.users[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	for _, user := range r.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// fakeSessionRepo 是 SessionRepository 的内存实现。
type fakeSessionRepo struct {
	denied map[string]bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{denied: make(map[string]bool)}
}

func (r *fakeSessionRepo) Denylist(_ context.Context, tok string, _ time.Duration) error {
	r.denied[tok] = true
	return nil
}

func (r *fakeSessionRepo) IsDenylisted(_ context.Context, tok string) (bool, error) {
	return r.denied[tok], nil
}

func newTestUserService() UserService {
	return NewUserService(newFakeUserRepo(), newFakeSessionRepo(), token.NewJWTManager("test-secret", 1))
}

func TestRegisterThenLogin(t *testing.T) {
	svc := newTestUserService()

	user, err := svc.Register("alice", "secret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected a non-zero user id")
	}
	if user.Password == "secret" {
		t.Fatal("password must not be stored in plaintext")
	}

	sessionToken, loggedIn, err := svc.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if sessionToken == "" {
		t.Fatal("expected a session token")
	}
	if loggedIn.Username != "alice" {
		t.Fatalf("expected user alice, got %s", loggedIn.Username)
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{name: "empty username", username: "", password: "pw", want: ErrUsernameRequired},
		{name: "blank username", username: "   ", password: "pw", want: ErrUsernameRequired},
		{name: "empty password", username: "bob", password: "", want: ErrPasswordRequired},
	}

	svc := newTestUserService()
	for _, tc := range cases {
		if _, err := svc.Register(tc.username, tc.password); !errors.Is(err, tc.want) {
			t.Errorf("%s: Register(%q, %q) = %v, want %v", tc.name, tc.username, tc.password, err, tc.want)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestUserService()

	if _, err := svc.Register("alice", "first"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	// 重复注册失败与第二次使用的密码无关
	if _, err := svc.Register("alice", "different"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newTestUserService()
	if _, err := svc.Register("alice", "secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := svc.Login("nobody", "secret"); !errors.Is(err, ErrIncorrectUsername) {
		t.Fatalf("expected ErrIncorrectUsername, got %v", err)
	}
	if _, _, err := svc.Login("alice", "wrong"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
}

func TestCurrentUserAndLogout(t *testing.T) {
	svc := newTestUserService()
	ctx := context.Background()

	if _, err := svc.Register("alice", "secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	sessionToken, _, err := svc.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	user, err := svc.CurrentUser(ctx, sessionToken)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected alice, got %s", user.Username)
	}

	// 登出后同一令牌不再可用
	if err := svc.Logout(ctx, sessionToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.CurrentUser(ctx, sessionToken); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession after logout, got %v", err)
	}

	// 登出是幂等的：重复登出与空令牌都不报错
	if err := svc.Logout(ctx, sessionToken); err != nil {
		t.Fatalf("repeated Logout failed: %v", err)
	}
	if err := svc.Logout(ctx, ""); err != nil {
		t.Fatalf("Logout without session failed: %v", err)
	}
}

func TestCurrentUserRejectsGarbageToken(t *testing.T) {
	svc := newTestUserService()

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.CurrentUser(context.Background(), tok); !errors.Is(err, ErrInvalidSession) {
			t.Errorf("CurrentUser(%q) = %v, want ErrInvalidSession", tok, err)
		}
	}
}
