package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/userhub/user-management/internal/api/metrics"
	"github.com/userhub/user-management/internal/core/domain"
	"github.com/userhub/user-management/internal/core/ports"
	"github.com/userhub/user-management/internal/core/validation"
)

const (
	defaultMaxLoginAttempts = 5
	verificationTTL         = 24 * time.Hour

	// TemplateEmailVerification names the template sent after registration.
	TemplateEmailVerification = "email_verification"

	// dummyHash is a valid bcrypt hash compared against when the email is
	// unknown, so response timing does not reveal whether the account exists.
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserService implements registration, login with lockout, email
// verification, profile updates, and the administrative unlock.
type UserService struct {
	repo          ports.UserRepository
	hasher        ports.PasswordHasher
	codec         ports.TokenCodec
	validator     *validation.CredentialValidator
	emails        ports.EmailQueue
	verifications ports.VerificationStore
	maxAttempts   int
	tokenTTL      time.Duration
	baseURL       string
	log           zerolog.Logger
	now           func() time.Time
}

type Options struct {
	MaxLoginAttempts int
	TokenTTL         time.Duration
	// BaseURL is the externally reachable application root used to build
	// verification links.
	BaseURL string
}

func NewUserService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	codec ports.TokenCodec,
	emails ports.EmailQueue,
	verifications ports.VerificationStore,
	opts Options,
	log zerolog.Logger,
) *UserService {
	if opts.MaxLoginAttempts <= 0 {
		opts.MaxLoginAttempts = defaultMaxLoginAttempts
	}
	return &UserService{
		repo:          repo,
		hasher:        hasher,
		codec:         codec,
		validator:     validation.New(),
		emails:        emails,
		verifications: verifications,
		maxAttempts:   opts.MaxLoginAttempts,
		tokenTTL:      opts.TokenTTL,
		baseURL:       opts.BaseURL,
		log:           log,
		now:           time.Now,
	}
}

// Register validates the credential set, stores the new account unverified and
// unlocked, and queues a verification email. The email is fire-and-forget:
// delivery failures never fail the registration.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if err := s.validator.Registration(in.Nickname, in.Email, in.Password, in.ProfilePictureURL); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("validation_failed").Inc()
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Nickname:          in.Nickname,
		Email:             in.Email,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Bio:               in.Bio,
		ProfilePictureURL: in.ProfilePictureURL,
		PasswordHash:      hash,
		Role:              domain.RoleAuthenticated,
		EmailVerified:     false,
		IsLocked:          false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrUserExists
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, s.storeErr(err)
	}

	s.sendVerification(ctx, created)
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return created, nil
}

// Login authenticates the account identified by email. The lockout gate runs
// before the password check: a locked account is rejected without hashing work
// and without touching the counter. Unknown email and wrong password are
// externally identical (ErrInvalidCredentials).
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	start := s.now()
	defer func() { metrics.LoginDuration.Observe(time.Since(start).Seconds()) }()

	if email == "" || password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Burn the same hashing cost as the wrong-password path.
			_, _ = s.hasher.Verify(password, dummyHash)
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return "", nil, s.storeErr(err)
	}

	if user.IsLocked {
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return "", nil, domain.ErrAccountLocked
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}
	if !ok {
		updated, ierr := s.repo.IncrementFailedAttempts(ctx, user.ID, s.maxAttempts)
		if ierr != nil {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
			return "", nil, s.storeErr(ierr)
		}
		if updated.IsLocked {
			metrics.AccountLockoutsTotal.Inc()
			s.log.Warn().
				Str("user_id", user.ID).
				Int("failed_attempts", updated.FailedLoginAttempts).
				Msg("account locked after repeated failed logins")
		}
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		metrics.LoginAttemptsTotal.WithLabelValues("unverified").Inc()
		return "", nil, domain.ErrAccountUnverified
	}

	if err := s.repo.RecordLoginSuccess(ctx, user.ID, s.now().UTC()); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return "", nil, s.storeErr(err)
	}

	token, err := s.codec.Issue(user.Email, user.Role, s.tokenTTL)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues(string(user.Role)).Inc()
	return token, user, nil
}

// VerifyEmail consumes a one-time verification token and marks the account
// verified. A reused or expired token is ErrTokenInvalid.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}
	userID, err := s.verifications.Take(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, s.storeErr(err)
	}
	if err := s.repo.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, s.storeErr(err)
	}
	return s.GetByID(ctx, userID)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, s.storeErr(err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, s.storeErr(err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, limit, offset int64) ([]*domain.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return users, nil
}

// UpdateProfile applies a partial profile update after running the credential
// policy over the changed fields.
func (s *UserService) UpdateProfile(ctx context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
	if err := s.validator.Profile("", "", update.ProfilePictureURL); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FirstName != "" {
		user.FirstName = update.FirstName
	}
	if update.LastName != "" {
		user.LastName = update.LastName
	}
	if update.Bio != "" {
		user.Bio = update.Bio
	}
	if update.ProfilePictureURL != "" {
		user.ProfilePictureURL = update.ProfilePictureURL
	}
	user.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, s.storeErr(err)
	}
	return updated, nil
}

// Unlock is the explicit administrative Locked -> Active transition.
func (s *UserService) Unlock(ctx context.Context, id string) (*domain.User, error) {
	if err := s.repo.Unlock(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, s.storeErr(err)
	}
	s.log.Info().Str("user_id", id).Msg("account unlocked by administrator")
	return s.GetByID(ctx, id)
}

// sendVerification mints a one-time token and queues the verification email.
// Failures are logged, never propagated into the registration result.
func (s *UserService) sendVerification(ctx context.Context, user *domain.User) {
	token, err := randomToken()
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("generate verification token")
		return
	}
	if err := s.verifications.Put(ctx, token, user.ID, verificationTTL); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("store verification token")
		return
	}
	s.emails.Enqueue(ports.EmailJob{
		Template:  TemplateEmailVerification,
		Recipient: user.Email,
		Name:      user.Nickname,
		Data: map[string]string{
			"verification_url": fmt.Sprintf("%s/auth/verify?token=%s", s.baseURL, token),
		},
	})
}

func (s *UserService) storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
