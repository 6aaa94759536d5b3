package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ozgunk/social-feed-be/internal/apperr"
	"github.com/ozgunk/social-feed-be/internal/auth"
	"github.com/ozgunk/social-feed-be/internal/models"
)

type fakeUserService struct {
	signupFn func(email, password, name string) (models.User, error)
	loginFn  func(email, password string) (models.User, error)
}

func (f fakeUserService) Signup(email, password, name string) (models.User, error) {
	if f.signupFn == nil {
		return models.User{}, nil
	}
	return f.signupFn(email, password, name)
}

func (f fakeUserService) Login(email, password string) (models.User, error) {
	if f.loginFn == nil {
		return models.User{}, nil
	}
	return f.loginFn(email, password)
}

func (f fakeUserService) GetUserByID(id string) (models.User, error) {
	return models.User{}, apperr.NotFound("User not found.")
}

func (f fakeUserService) GetPostIDs(userID string) ([]string, error) {
	return nil, nil
}

func authRouter(svc fakeUserService) (http.Handler, *auth.Service) {
	tokens := auth.NewService("test-secret", time.Hour)
	h := NewAuthHandler(svc, tokens, false, time.Hour)
	r := chi.NewRouter()
	r.Put("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
	return r, tokens
}

func TestSignupCreated(t *testing.T) {
	router, _ := authRouter(fakeUserService{
		signupFn: func(email, password, name string) (models.User, error) {
			return models.User{ID: "user-1", Email: email, Name: name}, nil
		},
	})

	body, _ := json.Marshal(map[string]string{
		"email":    "user@example.com",
		"password": "secret",
		"name":     "Tester",
	})
	req := httptest.NewRequest(http.MethodPut, "/auth/signup", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if got["userId"] != "user-1" {
		t.Fatalf("expected userId user-1, got %v", got["userId"])
	}
}

func TestSignupValidationEnvelope(t *testing.T) {
	router, _ := authRouter(fakeUserService{
		signupFn: func(email, password, name string) (models.User, error) {
			return models.User{}, apperr.Validation("User creation failed. It is not valid.",
				apperr.Violation{Param: "email", Msg: "Email already taken."},
				apperr.Violation{Param: "password", Msg: "Password must be at least 5 characters."},
			)
		},
	})

	body, _ := json.Marshal(map[string]string{"email": "user@example.com", "password": "123", "name": "Tester"})
	req := httptest.NewRequest(http.MethodPut, "/auth/signup", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	var got struct {
		Message string             `json:"message"`
		Data    []apperr.Violation `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if got.Message == "" || len(got.Data) != 2 {
		t.Fatalf("expected message and 2 violations, got %+v", got)
	}
}

func TestLoginSuccess(t *testing.T) {
	router, tokens := authRouter(fakeUserService{
		loginFn: func(email, password string) (models.User, error) {
			return models.User{ID: "user-1", Email: email, Name: "Tester"}, nil
		},
	})

	body, _ := json.Marshal(map[string]string{"email": "user@example.com", "password": "secret"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	tokenStr, _ := got["token"].(string)
	if tokenStr == "" {
		t.Fatal("expected a token in the response")
	}

	// The issued token must pass the gate.
	claims, err := tokens.Verify(tokenStr)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected claims for user-1, got %s", claims.UserID)
	}

	cookies := resp.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "token" && c.Value == tokenStr {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the token cookie to be set")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := authRouter(fakeUserService{
		loginFn: func(email, password string) (models.User, error) {
			return models.User{}, apperr.Unauthenticated("Wrong password.")
		},
	})

	body, _ := json.Marshal(map[string]string{"email": "user@example.com", "password": "nope"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	router, _ := authRouter(fakeUserService{
		loginFn: func(email, password string) (models.User, error) {
			return models.User{}, apperr.NotFound("A user with this email could not be found.")
		},
	})

	body, _ := json.Marshal(map[string]string{"email": "ghost@example.com", "password": "secret"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
