package services

import (
	"database/sql"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/ozgunk/social-feed-be/internal/apperr"
	"github.com/ozgunk/social-feed-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 5

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(email, password, name string) (models.User, error)
	Login(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	GetPostIDs(userID string) ([]string, error)
}

// UserService provides business logic for accounts and credentials.
type UserService struct {
	db       *sql.DB
	eventSvc EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, eventSvc EventServiceProvider) *UserService {
	return &UserService{db: db, eventSvc: eventSvc}
}

// Signup validates the registration input, hashes the password and persists
// a new user. All violated rules are reported together in one 422.
func (s *UserService) Signup(email, password, name string) (models.User, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	name = strings.TrimSpace(name)

	var violations []apperr.Violation
	if !emailRegex.MatchString(email) {
		violations = append(violations, apperr.Violation{Param: "email", Msg: "Please enter a valid email."})
	} else {
		taken, err := s.emailTaken(email)
		if err != nil {
			return models.User{}, err
		}
		if taken {
			violations = append(violations, apperr.Violation{Param: "email", Msg: "Email already taken."})
		}
	}
	if len(password) < minPasswordLength {
		violations = append(violations, apperr.Violation{Param: "password", Msg: "Password must be at least 5 characters."})
	}
	if name == "" {
		violations = append(violations, apperr.Violation{Param: "name", Msg: "Name must not be empty."})
	}
	if len(violations) > 0 {
		return models.User{}, apperr.Validation("User creation failed. It is not valid.", violations...)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, email, name, password_hash) VALUES(?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.ID, user.Email, user.Name, user.PasswordHash); err != nil {
		return models.User{}, err
	}

	if s.eventSvc != nil {
		s.eventSvc.Record("user.signup", "info", "User "+user.Email+" signed up.", nil)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Login verifies a user's credentials. Unknown emails report NotFound,
// wrong passwords report Unauthenticated.
func (s *UserService) Login(email, password string) (models.User, error) {
	user, err := s.getUserByEmail(email)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("A user with this email could not be found.")
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperr.Unauthenticated("Wrong password.")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, name, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("User not found.")
		}
		return models.User{}, err
	}
	return user, nil
}

// GetPostIDs returns the ids of every post the user owns, oldest first.
func (s *UserService) GetPostIDs(userID string) ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM posts WHERE creator_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *UserService) getUserByEmail(email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) emailTaken(email string) (bool, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
