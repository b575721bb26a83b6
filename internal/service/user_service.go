// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"kids-talk-go/internal/model"
	"kids-talk-go/internal/repository"
	"kids-talk-go/pkg/hash"
	"kids-talk-go/pkg/log"
	"kids-talk-go/pkg/token"
)

// 用户可见的账号错误。错误文本即是接口返回的机器可读消息。
var (
	ErrUsernameRequired  = errors.New("username_required")
	ErrPasswordRequired  = errors.New("password_required")
	ErrUsernameTaken     = errors.New("username_taken")
	ErrIncorrectUsername = errors.New("incorrect_username")
	ErrIncorrectPassword = errors.New("incorrect_password")
	ErrInvalidSession    = errors.New("invalid_session")
)

// UserService 接口定义了所有与账号相关的业务操作。
type UserService interface {
	Register(username, password string) (*model.User, error)
	Login(username, password string) (sessionToken string, user *model.User, err error)
	Logout(ctx context.Context, sessionToken string) error
	CurrentUser(ctx context.Context, sessionToken string) (*model.User, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtManager  *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtManager:  jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(username, password string) (*model.User, error) {
	// 1. 校验必填字段
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	// 2. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	// 3. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	// 4. 创建新用户
	newUser := &model.User{
		Username: username,
		Password: hashedPassword,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		log.Errorf("[UserService] 创建用户失败, username: %s, error: %v", username, err)
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑，成功时签发新的会话令牌。
// 旧的会话 Cookie 由 handler 层覆盖，即登录总是使浏览器之前的会话失效。
func (s *userService) Login(username, password string) (string, *model.User, error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrIncorrectUsername
		}
		return "", nil, fmt.Errorf("查询用户失败: %w", err)
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", nil, ErrIncorrectPassword
	}

	// 3. 签发会话令牌
	sessionToken, err := s.jwtManager.Generate(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("签发会话令牌失败: %w", err)
	}

	return sessionToken, user, nil
}

// Logout 处理用户登出逻辑，将令牌加入黑名单。
// 幂等：没有会话或令牌已失效时静默成功。
func (s *userService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	claims, err := s.jwtManager.Verify(sessionToken)
	if err != nil {
		// 无效或过期的令牌本来就无法再使用
		return nil
	}
	// 令牌的剩余有效期作为黑名单条目的过期时间
	return s.sessionRepo.Denylist(ctx, sessionToken, time.Until(claims.ExpiresAt.Time))
}

// CurrentUser 解析会话令牌并返回对应的用户。
// 令牌无效、已注销或用户不存在时返回 ErrInvalidSession。
func (s *userService) CurrentUser(ctx context.Context, sessionToken string) (*model.User, error) {
	if sessionToken == "" {
		return nil, ErrInvalidSession
	}

	claims, err := s.jwtManager.Verify(sessionToken)
	if err != nil {
		return nil, ErrInvalidSession
	}

	denied, err := s.sessionRepo.IsDenylisted(ctx, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("检查会话黑名单失败: %w", err)
	}
	if denied {
		return nil, ErrInvalidSession
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		// 令牌有效但用户已不存在
		return nil, ErrInvalidSession
	}

	return user, nil
}
