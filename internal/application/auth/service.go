package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/metrics"
	"github.com/bike-resale-api/internal/pkg/id"
	"github.com/bike-resale-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// RegisterResult reports the user id and whether an existing unverified
// account was reused.
type RegisterResult struct {
	UserID string
	Resent bool
}

// LoginResult is a signed access token plus the caller's user record.
type LoginResult struct {
	AccessToken string
	User        *domain.User
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error)
	VerifyRegistration(ctx context.Context, userID, code string) error
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
}

// Narrow interfaces for dependency injection and testability.

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type mailer interface {
	Send(ctx context.Context, e domain.Email) error
}

type tokenSigner interface {
	Sign(userID string) (string, error)
}

// ServiceDeps groups the dependencies of the auth service.
type ServiceDeps struct {
	UserRepo    userStore
	Mailer      mailer
	JWTProvider tokenSigner
	Metrics     metrics.Recorder
	BcryptCost  int
	GenerateOTP func() (string, error) // defaults to otp.Generate
}

type service struct {
	userRepo    userStore
	mailer      mailer
	jwtProvider tokenSigner
	metrics     metrics.Recorder
	cost        int
	generateOTP func() (string, error)

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		userRepo:    deps.UserRepo,
		mailer:      deps.Mailer,
		jwtProvider: deps.JWTProvider,
		metrics:     deps.Metrics,
		cost:        deps.BcryptCost,
		generateOTP: deps.GenerateOTP,
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.generateOTP == nil {
		s.generateOTP = otp.Generate
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	return s
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error) {
	existing, err := s.lookupEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsVerified {
		s.metrics.RecordAuthEvent("register", "conflict")
		return nil, fmt.Errorf("email already registered and verified: %w", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}
	code, err := s.generateOTP()
	if err != nil {
		return nil, err
	}

	res := &RegisterResult{}
	if existing != nil {
		err = s.userRepo.Update(ctx, existing.UserID, map[string]interface{}{
			"full_name":     req.FullName,
			"address":       req.Address,
			"password_hash": string(hash),
			"register_otp":  code,
		})
		if err != nil {
			return nil, err
		}
		res.UserID, res.Resent = existing.UserID, true
	} else {
		now := time.Now().UTC()
		u := &domain.User{
			UserID:       id.New(),
			FullName:     req.FullName,
			Email:        req.Email,
			Address:      req.Address,
			PasswordHash: string(hash),
			RegisterOTP:  &code,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.userRepo.Put(ctx, u); err != nil {
			return nil, err
		}
		res.UserID = u.UserID
	}

	if err := s.mailer.Send(ctx, verificationEmail(req.Email, code)); err != nil {
		return nil, fmt.Errorf("send verification email: %w", err)
	}
	if res.Resent {
		s.metrics.RecordAuthEvent("register", "resent")
	} else {
		s.metrics.RecordAuthEvent("register", "created")
	}
	return res, nil
}

func (s *service) VerifyRegistration(ctx context.Context, userID, code string) error {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsVerified {
		return fmt.Errorf("user already verified: %w", domain.ErrAlreadyVerified)
	}
	if u.RegisterOTP == nil || *u.RegisterOTP != code {
		s.metrics.RecordAuthEvent("verify", "invalid_otp")
		return fmt.Errorf("registration otp mismatch: %w", domain.ErrInvalidOTP)
	}
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"is_verified":  true,
		"register_otp": nil,
	}); err != nil {
		return err
	}
	s.metrics.RecordAuthEvent("verify", "success")
	return nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	u, err := s.lookupEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// Same bcrypt work as a real compare so unknown emails are not distinguishable by timing.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(req.Password))
		s.metrics.RecordAuthEvent("login", "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordAuthEvent("login", "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if !u.IsVerified {
		code, err := s.generateOTP()
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{"register_otp": code}); err != nil {
			return nil, err
		}
		if err := s.mailer.Send(ctx, verificationEmail(u.Email, code)); err != nil {
			return nil, fmt.Errorf("send verification email: %w", err)
		}
		s.metrics.RecordAuthEvent("login", "not_verified")
		return nil, &domain.NotVerifiedError{UserID: u.UserID}
	}

	token, err := s.jwtProvider.Sign(u.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{"access_token": token}); err != nil {
		return nil, err
	}
	u.AccessToken = &token
	s.metrics.RecordAuthEvent("login", "success")
	return &LoginResult{AccessToken: token, User: u}, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.lookupEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil || !u.IsVerified {
		return fmt.Errorf("user not found or not verified: %w", domain.ErrNotFound)
	}
	code, err := s.generateOTP()
	if err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{"reset_otp": code}); err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, domain.Email{
		To:      u.Email,
		Subject: "Password Reset OTP",
		Text:    "Your OTP for password reset is: " + code,
	}); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	s.metrics.RecordAuthEvent("forgot_password", "sent")
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	u, err := s.lookupEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if u == nil || u.ResetOTP == nil || *u.ResetOTP != req.OTP {
		s.metrics.RecordAuthEvent("reset_password", "invalid_otp")
		return domain.ErrInvalidOTPOrEmail
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{
		"password_hash": string(hash),
		"reset_otp":     nil,
	}); err != nil {
		return err
	}
	slog.Info("password reset", "user_id", u.UserID)
	s.metrics.RecordAuthEvent("reset_password", "success")
	return nil
}

// lookupEmail returns (nil, nil) when no user owns email.
func (s *service) lookupEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

func verificationEmail(to, code string) domain.Email {
	return domain.Email{
		To:      to,
		Subject: "Verify Your Account on SmartBike-Resale",
		Text:    "Your OTP is " + code,
	}
}
