package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-management/internal/core/domain"
	"github.com/userhub/user-management/internal/core/ports"
)

func withPrincipal(c echo.Context, identity string, role domain.Role) {
	c.Set("principal", domain.Principal{Identity: identity, Role: role})
}

func TestUserHandler_Me(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		byEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			if email != "carol@example.com" {
				t.Fatalf("unexpected email: %s", email)
			}
			return &domain.User{ID: "user-1", Email: email, Role: domain.RoleAuthenticated}, nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withPrincipal(c, "carol@example.com", domain.RoleAuthenticated)

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Me_NoPrincipal(t *testing.T) {
	e := newTestEcho()
	handler := NewUserHandler(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Me(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUserHandler_Update_Self(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		byIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "dave@example.com"}, nil
		},
		updateFn: func(_ context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
			return &domain.User{ID: id, Email: "dave@example.com", Bio: update.Bio}, nil
		},
	}
	handler := NewUserHandler(stub)

	body := strings.NewReader(`{"bio":"Updated bio text that is valid."}`)
	req := httptest.NewRequest(http.MethodPut, "/users/user-1", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("user-1")
	withPrincipal(c, "dave@example.com", domain.RoleAuthenticated)

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["bio"] != "Updated bio text that is valid." {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Update_OtherAccountForbidden(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		byIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "someone-else@example.com"}, nil
		},
		updateFn: func(context.Context, string, ports.ProfileUpdate) (*domain.User, error) {
			t.Fatalf("update should not be called")
			return nil, nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodPut, "/users/user-2", strings.NewReader(`{"bio":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("user-2")
	withPrincipal(c, "dave@example.com", domain.RoleAuthenticated)

	if err := handler.Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserHandler_Update_ManagerMayEditOthers(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		byIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "someone-else@example.com"}, nil
		},
		updateFn: func(_ context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
			return &domain.User{ID: id, Email: "someone-else@example.com", Bio: update.Bio}, nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodPut, "/users/user-2", strings.NewReader(`{"bio":"edited by manager"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("user-2")
	withPrincipal(c, "manager@example.com", domain.RoleManager)

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		listFn: func(_ context.Context, limit, offset int64) ([]*domain.User, error) {
			if limit != 10 || offset != 5 {
				t.Fatalf("unexpected pagination: limit=%d offset=%d", limit, offset)
			}
			return []*domain.User{{ID: "user-1"}, {ID: "user-2"}}, nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/users?limit=10&offset=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp userListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected 2 users, got %d", resp.Total)
	}
}

func TestUserHandler_Unlock(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		unlockFn: func(_ context.Context, id string) (*domain.User, error) {
			if id != "user-9" {
				t.Fatalf("unexpected id: %s", id)
			}
			return &domain.User{ID: id, IsLocked: false}, nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/users/user-9/unlock", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("user-9")

	if err := handler.Unlock(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
