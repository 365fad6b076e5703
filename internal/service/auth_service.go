package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
)

const (
	minPasswordLength  = 6
	accessTokenTTL     = time.Hour
	tokenRefreshWindow = 15 * time.Minute
)

// SessionUser 表示一次请求中已解析的认证身份。
type SessionUser struct {
	ID    string
	Email string
}

// AuthService 充当身份/会话提供方: 账号存储、口令校验与访问令牌的签发刷新。
type AuthService struct {
	db     *gorm.DB
	secret []byte
	logger *zap.Logger
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewAuthService creates an AuthService instance.
func NewAuthService(gdb *gorm.DB, secret string, logger *zap.Logger) *AuthService {
	return &AuthService{db: gdb, secret: []byte(secret), logger: logger}
}

// SignUp 注册新账号并返回会话令牌。
func (s *AuthService) SignUp(email, password string) (*SessionUser, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if len(password) < minPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	var existing db.AuthUser
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := db.AuthUser{Email: email, PasswordHash: string(hashed)}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, "", err
	}

	sessionUser := &SessionUser{ID: user.ID, Email: user.Email}
	token, err := s.mintToken(sessionUser, accessTokenTTL)
	if err != nil {
		return nil, "", err
	}
	return sessionUser, token, nil
}

// SignIn 校验口令并返回会话令牌。账号不存在与口令错误不作区分。
func (s *AuthService) SignIn(email, password string) (*SessionUser, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user db.AuthUser
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	sessionUser := &SessionUser{ID: user.ID, Email: user.Email}
	token, err := s.mintToken(sessionUser, accessTokenTTL)
	if err != nil {
		return nil, "", err
	}
	return sessionUser, token, nil
}

// Authenticate 解析会话令牌。令牌有效且临近过期时附带返回刷新后的令牌,
// 会话刷新即作为每次检查的副作用发生。无效或过期令牌返回 nil 身份。
func (s *AuthService) Authenticate(token string) (*SessionUser, string) {
	if strings.TrimSpace(token) == "" {
		return nil, ""
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ""
	}

	user := &SessionUser{ID: claims.Subject, Email: claims.Email}

	refreshed := ""
	if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) < tokenRefreshWindow {
		if next, err := s.mintToken(user, accessTokenTTL); err == nil {
			refreshed = next
		} else if s.logger != nil {
			s.logger.Warn("session token refresh failed", zap.Error(err))
		}
	}

	return user, refreshed
}

func (s *AuthService) mintToken(user *SessionUser, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
