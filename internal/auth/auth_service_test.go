package auth_test

import (
	"context"
	"sync"
	"testing"

	"go-hr-portal/internal/audit"
	"go-hr-portal/internal/auth"
	autherrors "go-hr-portal/internal/auth/errors"
	"go-hr-portal/internal/domain"
	"go-hr-portal/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeAuthRepository struct {
	createFn     func(ctx context.Context, user *auth.User) error
	getByEmailFn func(ctx context.Context, email string) (*auth.User, error)
	getByIDFn    func(ctx context.Context, orgID, id uuid.UUID) (*auth.User, error)
}

func (f *fakeAuthRepository) Create(ctx context.Context, user *auth.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, user)
	}
	return nil
}

func (f *fakeAuthRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuthRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*auth.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, orgID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

// fakeAttemptStore keeps counters in memory, keyed exactly like the
// redis-backed store.
type fakeAttemptStore struct {
	mu     sync.Mutex
	counts map[string]int64
	resets []string
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{counts: map[string]int64{}}
}

func (f *fakeAttemptStore) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeAttemptStore) Count(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[key], nil
}

func (f *fakeAttemptStore) Reset(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, key)
	f.resets = append(f.resets, key)
	return nil
}

type capturingRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *capturingRecorder) Record(ctx context.Context, e audit.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

func (c *capturingRecorder) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Action
	}
	return out
}

func testUser(t *testing.T, password string) *auth.User {
	t.Helper()
	pw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NoError(t, err)
	return &auth.User{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Email:          "casey@example.com",
		Name:           "Casey",
		Password:       string(pw),
		Role:           string(domain.RoleEmployee),
		IsActive:       true,
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		user := testUser(t, "password123")
		repo := &fakeAuthRepository{
			getByEmailFn: func(ctx context.Context, email string) (*auth.User, error) {
				assert.Equal(t, user.Email, email)
				return user, nil
			},
		}
		attempts := newFakeAttemptStore()
		recorder := &capturingRecorder{}
		svc := auth.NewService(repo, attempts, recorder)

		access, refresh, resp, err := svc.Login(ctx, user.Email, "password123")

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, user.Email, resp.Email)
		assert.Equal(t, user.OrganizationID.String(), resp.OrganizationID)
		assert.Equal(t, string(domain.RoleEmployee), resp.Role)
		assert.Len(t, attempts.resets, 1)
		assert.Equal(t, []string{"auth.login"}, recorder.actions())
	})

	t.Run("negative wrong password counts attempt", func(t *testing.T) {
		user := testUser(t, "password123")
		repo := &fakeAuthRepository{
			getByEmailFn: func(ctx context.Context, email string) (*auth.User, error) {
				return user, nil
			},
		}
		attempts := newFakeAttemptStore()
		svc := auth.NewService(repo, attempts, &capturingRecorder{})

		_, _, _, err := svc.Login(ctx, user.Email, "wrongpass")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
		n, _ := attempts.Count(ctx, "login:"+user.Email)
		assert.Equal(t, int64(1), n)
	})

	t.Run("negative unknown email counts attempt", func(t *testing.T) {
		attempts := newFakeAttemptStore()
		svc := auth.NewService(&fakeAuthRepository{}, attempts, &capturingRecorder{})

		_, _, _, err := svc.Login(ctx, "nobody@example.com", "whatever")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
		n, _ := attempts.Count(ctx, "login:nobody@example.com")
		assert.Equal(t, int64(1), n)
	})

	t.Run("negative locked after threshold", func(t *testing.T) {
		user := testUser(t, "password123")
		lookups := 0
		repo := &fakeAuthRepository{
			getByEmailFn: func(ctx context.Context, email string) (*auth.User, error) {
				lookups++
				return user, nil
			},
		}
		attempts := newFakeAttemptStore()
		recorder := &capturingRecorder{}
		svc := auth.NewService(repo, attempts, recorder)

		for i := 0; i < 5; i++ {
			_, _, _, err := svc.Login(ctx, user.Email, "wrongpass")
			assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
		}
		assert.Contains(t, recorder.actions(), "auth.lockout")

		// The sixth attempt is rejected before the password check, even
		// with the right password.
		_, _, _, err := svc.Login(ctx, user.Email, "password123")

		assert.ErrorIs(t, err, autherrors.ErrAccountLocked)
		assert.Equal(t, 5, lookups)
	})

	t.Run("negative lockout key is case insensitive", func(t *testing.T) {
		attempts := newFakeAttemptStore()
		svc := auth.NewService(&fakeAuthRepository{}, attempts, &capturingRecorder{})

		_, _, _, _ = svc.Login(ctx, "Casey@Example.com", "x")

		n, _ := attempts.Count(ctx, "login:casey@example.com")
		assert.Equal(t, int64(1), n)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("success round trip", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		user := testUser(t, "password123")
		repo := &fakeAuthRepository{
			getByEmailFn: func(ctx context.Context, email string) (*auth.User, error) {
				return user, nil
			},
			getByIDFn: func(ctx context.Context, orgID, id uuid.UUID) (*auth.User, error) {
				assert.Equal(t, user.OrganizationID, orgID)
				assert.Equal(t, user.ID, id)
				return user, nil
			},
		}
		svc := auth.NewService(repo, newFakeAttemptStore(), &capturingRecorder{})

		_, refresh, _, err := svc.Login(ctx, user.Email, "password123")
		assert.NoError(t, err)

		newAccess, newRefresh, resp, err := svc.RefreshToken(ctx, refresh)

		assert.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)
		assert.Equal(t, user.ID.String(), resp.ID)
	})

	t.Run("negative garbage token", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		svc := auth.NewService(&fakeAuthRepository{}, newFakeAttemptStore(), &capturingRecorder{})

		_, _, _, err := svc.RefreshToken(ctx, "not.a.jwt")

		assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_GetMe(t *testing.T) {
	ctx := context.Background()
	user := testUser(t, "password123")
	p := domain.Principal{ID: user.ID, Role: domain.RoleEmployee, OrganizationID: user.OrganizationID}

	t.Run("success", func(t *testing.T) {
		repo := &fakeAuthRepository{
			getByIDFn: func(ctx context.Context, orgID, id uuid.UUID) (*auth.User, error) {
				return user, nil
			},
		}
		svc := auth.NewService(repo, newFakeAttemptStore(), &capturingRecorder{})

		resp, err := svc.GetMe(ctx, p)

		assert.NoError(t, err)
		assert.Equal(t, user.Email, resp.Email)
	})

	t.Run("negative not found", func(t *testing.T) {
		svc := auth.NewService(&fakeAuthRepository{}, newFakeAttemptStore(), &capturingRecorder{})

		_, err := svc.GetMe(ctx, p)

		assert.ErrorIs(t, err, autherrors.ErrUserNotFound)
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success defaults role to employee", func(t *testing.T) {
		recorder := &capturingRecorder{}
		repo := &fakeAuthRepository{
			createFn: func(ctx context.Context, user *auth.User) error {
				assert.Equal(t, string(domain.RoleEmployee), user.Role)
				assert.Equal(t, "casey@example.com", user.Email)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
				return nil
			},
		}
		svc := auth.NewService(repo, newFakeAttemptStore(), recorder)

		resp, err := svc.Register(ctx, auth.RegisterRequest{
			OrganizationID: uuid.New().String(),
			Email:          " Casey@Example.com ",
			Name:           "Casey",
			Password:       "password123",
		})

		assert.NoError(t, err)
		assert.Equal(t, string(domain.RoleEmployee), resp.Role)
		assert.Equal(t, []string{"auth.register"}, recorder.actions())
	})

	t.Run("success explicit manager role", func(t *testing.T) {
		repo := &fakeAuthRepository{
			createFn: func(ctx context.Context, user *auth.User) error {
				assert.Equal(t, string(domain.RoleManager), user.Role)
				return nil
			},
		}
		svc := auth.NewService(repo, newFakeAttemptStore(), &capturingRecorder{})

		resp, err := svc.Register(ctx, auth.RegisterRequest{
			OrganizationID: uuid.New().String(),
			Email:          "lee@example.com",
			Name:           "Lee",
			Password:       "password123",
			Role:           "MANAGER",
		})

		assert.NoError(t, err)
		assert.Equal(t, string(domain.RoleManager), resp.Role)
	})

	t.Run("negative duplicate email", func(t *testing.T) {
		repo := &fakeAuthRepository{
			createFn: func(ctx context.Context, user *auth.User) error {
				return &pgconn.PgError{Code: "23505"}
			},
		}
		svc := auth.NewService(repo, newFakeAttemptStore(), &capturingRecorder{})

		_, err := svc.Register(ctx, auth.RegisterRequest{
			OrganizationID: uuid.New().String(),
			Email:          "casey@example.com",
			Name:           "Casey",
			Password:       "password123",
		})

		assert.ErrorIs(t, err, autherrors.ErrEmailAlreadyRegistered)
	})

	t.Run("negative invalid organization id", func(t *testing.T) {
		svc := auth.NewService(&fakeAuthRepository{}, newFakeAttemptStore(), &capturingRecorder{})

		_, err := svc.Register(ctx, auth.RegisterRequest{
			OrganizationID: "nope",
			Email:          "casey@example.com",
			Name:           "Casey",
			Password:       "password123",
		})

		assert.ErrorIs(t, err, autherrors.ErrInvalidOrganizationID)
	})

	t.Run("negative invalid role", func(t *testing.T) {
		svc := auth.NewService(&fakeAuthRepository{}, newFakeAttemptStore(), &capturingRecorder{})

		_, err := svc.Register(ctx, auth.RegisterRequest{
			OrganizationID: uuid.New().String(),
			Email:          "casey@example.com",
			Name:           "Casey",
			Password:       "password123",
			Role:           "SUPERADMIN",
		})

		assert.ErrorIs(t, err, autherrors.ErrInvalidRole)
	})
}

func TestAuthService_ClearFailedAttempts(t *testing.T) {
	ctx := context.Background()

	t.Run("records audit and leaves counters", func(t *testing.T) {
		attempts := newFakeAttemptStore()
		_, _ = attempts.Incr(ctx, "login:casey@example.com")
		recorder := &capturingRecorder{}
		svc := auth.NewService(&fakeAuthRepository{}, attempts, recorder)

		actor := domain.Principal{ID: uuid.New(), Role: domain.RoleManager, OrganizationID: uuid.New()}
		err := svc.ClearFailedAttempts(ctx, actor, "Casey@Example.com")

		assert.NoError(t, err)
		assert.Equal(t, []string{"auth.attempts.clear_requested"}, recorder.actions())
		n, _ := attempts.Count(ctx, "login:casey@example.com")
		assert.Equal(t, int64(1), n)
	})

	t.Run("negative non-manager actor", func(t *testing.T) {
		recorder := &capturingRecorder{}
		svc := auth.NewService(&fakeAuthRepository{}, newFakeAttemptStore(), recorder)

		actor := domain.Principal{ID: uuid.New(), Role: domain.RoleEmployee, OrganizationID: uuid.New()}
		err := svc.ClearFailedAttempts(ctx, actor, "casey@example.com")

		assert.ErrorIs(t, err, apperror.ErrForbidden)
		assert.Empty(t, recorder.actions())
	})
}
