package services

import (
	"database/sql"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/ozgunk/social-feed-be/internal/apperr"
	"github.com/ozgunk/social-feed-be/internal/database"
	"github.com/ozgunk/social-feed-be/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

func createTestUser(t *testing.T, svc *UserService, email, password, name string) models.User {
	t.Helper()
	user, err := svc.Signup(email, password, name)
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", email, err)
	}
	return user
}

func errStatus(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	return apperr.FromErr(err).Status
}

func TestSignupValidation(t *testing.T) {
	svc := NewUserService(setupTestDB(t), nil)

	cases := []struct {
		name       string
		email      string
		password   string
		userName   string
		violations int
	}{
		{"bad email", "not-an-email", "secret", "Tester", 1},
		{"short password", "user@example.com", "1234", "Tester", 1},
		{"empty name", "user@example.com", "secret", "  ", 1},
		{"everything wrong", "bad", "123", "", 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Signup(c.email, c.password, c.userName)
			if got := errStatus(t, err); got != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", got)
			}
			if got := len(apperr.FromErr(err).Data); got != c.violations {
				t.Fatalf("expected %d violations, got %d", c.violations, got)
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := NewUserService(setupTestDB(t), nil)
	createTestUser(t, svc, "user@example.com", "secret", "Tester")

	_, err := svc.Signup("user@example.com", "another", "Other")
	if got := errStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", got)
	}
	found := false
	for _, v := range apperr.FromErr(err).Data {
		if v.Msg == "Email already taken." {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an 'Email already taken.' violation")
	}
}

func TestSignupDoesNotStorePlaintext(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, nil)
	user := createTestUser(t, svc, "user@example.com", "secret", "Tester")

	if user.PasswordHash != "" {
		t.Fatal("Signup must not return the password hash")
	}

	var stored string
	if err := db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&stored); err != nil {
		t.Fatalf("failed to read stored hash: %v", err)
	}
	if stored == "" || stored == "secret" {
		t.Fatalf("expected a hashed password, got %q", stored)
	}
}

func TestLogin(t *testing.T) {
	svc := NewUserService(setupTestDB(t), nil)
	created := createTestUser(t, svc, "user@example.com", "secret", "Tester")

	t.Run("correct credentials", func(t *testing.T) {
		user, err := svc.Login("user@example.com", "secret")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if user.ID != created.ID {
			t.Fatalf("expected user %s, got %s", created.ID, user.ID)
		}
		if user.PasswordHash != "" {
			t.Fatal("Login must not return the password hash")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("user@example.com", "nope!")
		if got := errStatus(t, err); got != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", got)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login("ghost@example.com", "secret")
		if got := errStatus(t, err); got != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", got)
		}
	})
}

func TestSignupRecordsEvent(t *testing.T) {
	db := setupTestDB(t)
	eventSvc := NewEventService(db)
	svc := NewUserService(db, eventSvc)
	createTestUser(t, svc, "user@example.com", "secret", "Tester")

	events, err := eventSvc.GetRecentEvents(10)
	if err != nil {
		t.Fatalf("GetRecentEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].Type != "user.signup" {
		t.Fatalf("expected one user.signup event, got %+v", events)
	}
}
