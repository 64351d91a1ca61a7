package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-management/internal/core/domain"
	"github.com/userhub/user-management/internal/core/ports"
)

type stubUserService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	verifyFn   func(ctx context.Context, token string) (*domain.User, error)
	byEmailFn  func(ctx context.Context, email string) (*domain.User, error)
	byIDFn     func(ctx context.Context, id string) (*domain.User, error)
	listFn     func(ctx context.Context, limit, offset int64) ([]*domain.User, error)
	updateFn   func(ctx context.Context, id string, update ports.ProfileUpdate) (*domain.User, error)
	unlockFn   func(ctx context.Context, id string) (*domain.User, error)
}

func (s *stubUserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubUserService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	return s.verifyFn(ctx, token)
}

func (s *stubUserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.byEmailFn(ctx, email)
}

func (s *stubUserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.byIDFn(ctx, id)
}

func (s *stubUserService) List(ctx context.Context, limit, offset int64) ([]*domain.User, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
	return s.updateFn(ctx, id, update)
}

func (s *stubUserService) Unlock(ctx context.Context, id string) (*domain.User, error) {
	return s.unlockFn(ctx, id)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Nickname != "john_doe_123" || in.Email != "john.doe@example.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "user-1", Nickname: in.Nickname, Email: in.Email, Role: domain.RoleAuthenticated}, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"nickname":"john_doe_123","email":"john.doe@example.com","password":"MySuperPassword$1234"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["nickname"] != "john_doe_123" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, leaked := resp["PasswordHash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"nickname":"bob"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_PropagatesServiceError(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"nickname":"bob_doe","email":"bob@example.com","password":"MySuperPassword$1234"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Register(c)
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists to propagate, got %v", err)
	}
}

func loginRequest(e *echo.Echo, username, password string) (echo.Context, *httptest.ResponseRecorder) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.User, error) {
			if email != "test@example.com" || password != "MySuperPassword$1234" {
				t.Fatalf("unexpected credentials: %s %s", email, password)
			}
			return "signed-token", &domain.User{Email: email, Role: domain.RoleAuthenticated}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := loginRequest(e, "test@example.com", "MySuperPassword$1234")
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "signed-token" {
		t.Fatalf("unexpected access_token: %s", resp.AccessToken)
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("unexpected token_type: %s", resp.TokenType)
	}
}

func TestAuthHandler_Login_PropagatesFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"invalid credentials", domain.ErrInvalidCredentials},
		{"account locked", domain.ErrAccountLocked},
		{"unverified", domain.ErrAccountUnverified},
		{"store down", domain.ErrStoreUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubUserService{
				loginFn: func(context.Context, string, string) (string, *domain.User, error) {
					return "", nil, tc.err
				},
			}
			handler := NewAuthHandler(stub)

			c, _ := loginRequest(e, "test@example.com", "wrong")
			if err := handler.Login(c); !errors.Is(err, tc.err) {
				t.Fatalf("expected %v to propagate, got %v", tc.err, err)
			}
		})
	}
}

func TestAuthHandler_Verify(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		verifyFn: func(_ context.Context, token string) (*domain.User, error) {
			if token != "abc123" {
				t.Fatalf("unexpected token: %s", token)
			}
			return &domain.User{ID: "user-1", EmailVerified: true}, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token=abc123", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Verify_MissingToken(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Verify(c); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
