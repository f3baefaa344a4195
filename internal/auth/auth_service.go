package auth

import (
	"context"
	"os"
	"strings"
	"time"

	"go-hr-portal/internal/audit"
	autherrors "go-hr-portal/internal/auth/errors"
	"go-hr-portal/internal/domain"
	"go-hr-portal/internal/shared/apperror"
	"go-hr-portal/internal/shared/counter"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	// Failed logins per email inside the attempt window before the
	// account is temporarily locked.
	maxFailedAttempts = 5
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, resp AuthResponse, err error)

	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, resp AuthResponse, err error)

	GetMe(ctx context.Context, p domain.Principal) (*AuthResponse, error)

	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)

	ClearFailedAttempts(ctx context.Context, actor domain.Principal, email string) error
}

type service struct {
	repo     Repository
	attempts counter.AttemptStore
	auditor  audit.Recorder
	logger   *zap.Logger
}

func NewService(repo Repository, attempts counter.AttemptStore, auditor audit.Recorder, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	if auditor == nil {
		auditor = audit.NewStdoutRecorder()
	}
	return &service{repo: repo, attempts: attempts, auditor: auditor, logger: l}
}

func attemptKey(email string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Login(ctx context.Context, email, password string) (string, string, AuthResponse, error) {
	key := attemptKey(email)

	if s.attempts != nil {
		n, err := s.attempts.Count(ctx, key)
		if err != nil {
			s.logger.Warn("login attempt count failed", zap.Error(err))
		} else if n >= maxFailedAttempts {
			s.logger.Warn("login rejected, account locked", zap.String("email", email))
			return "", "", AuthResponse{}, autherrors.ErrAccountLocked
		}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.recordFailedAttempt(ctx, key, email)
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.recordFailedAttempt(ctx, key, email)
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if s.attempts != nil {
		if err := s.attempts.Reset(ctx, key); err != nil {
			s.logger.Warn("login attempt reset failed", zap.Error(err))
		}
	}

	accessToken, err := s.generateToken(user, accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	refreshToken, err := s.generateToken(user, refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:      user.ID.String(),
		Action:     "auth.login",
		EntityType: "user",
		EntityID:   user.ID.String(),
	})

	return accessToken, refreshToken, mapToAuthResponse(user), nil
}

func (s *service) recordFailedAttempt(ctx context.Context, key, email string) {
	if s.attempts == nil {
		return
	}
	n, err := s.attempts.Incr(ctx, key)
	if err != nil {
		s.logger.Warn("login attempt incr failed", zap.Error(err))
		return
	}
	if n == maxFailedAttempts {
		s.logger.Warn("login lockout threshold reached", zap.String("email", email))
		s.auditor.Record(ctx, audit.Entry{
			Action:     "auth.lockout",
			EntityType: "user",
			EntityID:   strings.ToLower(strings.TrimSpace(email)),
			Metadata:   map[string]any{"attempts": n},
		})
	}
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, string, AuthResponse, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherrors.ErrInvalidToken
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return "", "", AuthResponse{}, autherrors.ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}
	orgIDStr, ok := claims["organization_id"].(string)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidUserID
	}
	orgID, err := uuid.Parse(orgIDStr)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidOrganizationID
	}

	user, err := s.repo.GetByID(ctx, orgID, userID)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrUserNotFound
	}

	newAccessToken, err := s.generateToken(user, accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	newRefreshToken, err := s.generateToken(user, refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	return newAccessToken, newRefreshToken, mapToAuthResponse(user), nil
}

func (s *service) GetMe(ctx context.Context, p domain.Principal) (*AuthResponse, error) {
	u, err := s.repo.GetByID(ctx, p.OrganizationID, p.ID)
	if err != nil {
		return nil, mapUserLookupError(err)
	}
	resp := mapToAuthResponse(u)
	return &resp, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return AuthResponse{}, autherrors.ErrInvalidOrganizationID
	}

	role := domain.RoleEmployee
	if req.Role != "" {
		role, err = domain.ParseRole(req.Role)
		if err != nil {
			return AuthResponse{}, autherrors.ErrInvalidRole
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	user := &User{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Name:           req.Name,
		Password:       string(hashed),
		Role:           string(role),
		IsActive:       true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return AuthResponse{}, mapCreateUserError(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:      user.ID.String(),
		Action:     "auth.register",
		EntityType: "user",
		EntityID:   user.ID.String(),
		Metadata:   map[string]any{"role": user.Role},
	})

	return mapToAuthResponse(user), nil
}

// ClearFailedAttempts records that an operator asked for a reset but
// leaves the counters alone; the window expires on its own and the
// audit trail is the point of the operation.
func (s *service) ClearFailedAttempts(ctx context.Context, actor domain.Principal, email string) error {
	if actor.Role != domain.RoleManager {
		return apperror.ErrForbidden
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:      actor.ID.String(),
		Action:     "auth.attempts.clear_requested",
		EntityType: "user",
		EntityID:   strings.ToLower(strings.TrimSpace(email)),
	})
	return nil
}

func (s *service) generateToken(user *User, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":         user.ID.String(),
		"organization_id": user.OrganizationID.String(),
		"role":            user.Role,
		"exp":             time.Now().Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func mapToAuthResponse(u *User) AuthResponse {
	return AuthResponse{
		ID:             u.ID.String(),
		OrganizationID: u.OrganizationID.String(),
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
	}
}
