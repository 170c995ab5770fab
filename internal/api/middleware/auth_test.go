package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

const testToken = "6f1e8a4c-9d2b-4f6e-8c3a-1b5d7e9f0a2c"

// stubAuthService records VerifySession calls so tests can assert the
// middleware never hits storage for malformed tokens.
type stubAuthService struct {
	person      *domain.Person
	verifyErr   error
	verifyCalls int
}

func (s *stubAuthService) Register(context.Context, ports.RegisterInput) (*ports.RegisterResult, error) {
	return nil, nil
}

func (s *stubAuthService) Login(context.Context, string, string) (*domain.Session, *domain.Person, error) {
	return nil, nil, nil
}

func (s *stubAuthService) Logout(context.Context, string) error { return nil }

func (s *stubAuthService) VerifySession(_ context.Context, token string) (*domain.Person, error) {
	s.verifyCalls++
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.person, nil
}

func (s *stubAuthService) RecoverPassword(context.Context, string, string, string) error {
	return nil
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	svc := &stubAuthService{person: &domain.Person{
		ID:       "p1",
		Email:    "maria@example.com",
		FullName: "María López",
	}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(svc)(func(c echo.Context) error {
		called = true
		if c.Get(CtxPersonID) != "p1" {
			t.Fatalf("person id not set")
		}
		if c.Get(CtxEmail) != "maria@example.com" {
			t.Fatalf("email not set")
		}
		if c.Get(CtxFullName) != "María López" {
			t.Fatalf("full name not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	svc := &stubAuthService{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(svc)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if svc.verifyCalls != 0 {
		t.Fatalf("missing header must not hit storage")
	}
}

func TestAuthMiddleware_NonUUIDToken(t *testing.T) {
	e := echo.New()
	svc := &stubAuthService{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-uuid")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(svc)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if svc.verifyCalls != 0 {
		t.Fatalf("non-UUID token must be rejected before any lookup")
	}
}

func TestAuthMiddleware_RevokedSession(t *testing.T) {
	e := echo.New()
	svc := &stubAuthService{verifyErr: domain.ErrSessionNotFound}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(svc)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if svc.verifyCalls != 1 {
		t.Fatalf("well-formed token must reach verification once, got %d", svc.verifyCalls)
	}
}
