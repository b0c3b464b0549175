package service

import (
	"testing"
	"time"

	"grow-sync/internal/domain"
	"grow-sync/pkg/hash"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, &userNotFoundError{}
}

func (m *mockUserRepository) FindByID(id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, &userNotFoundError{}
}

func (m *mockUserRepository) EmailExists(email string) (bool, error) {
	_, err := m.FindByEmail(email)
	return err == nil, nil
}

func (m *mockUserRepository) UsernameExists(username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type userNotFoundError struct{}

func (e *userNotFoundError) Error() string {
	return "user not found"
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "test-secret", 15*time.Minute, 7*24*time.Hour)

	tests := []struct {
		name    string
		req     *domain.RegisterRequest
		wantErr bool
		setup   func()
	}{
		{
			name: "successful registration",
			req: &domain.RegisterRequest{
				Username: "newuser",
				Email:    "new@example.com",
				Password: "Password123!",
			},
			wantErr: false,
			setup:   func() {},
		},
		{
			name: "duplicate email",
			req: &domain.RegisterRequest{
				Username: "anotheruser",
				Email:    "existing@example.com",
				Password: "Password123!",
			},
			wantErr: true,
			setup: func() {
				hashedPw, _ := hash.Hash("ExistingPass123!")
				repo.Create(&domain.User{
					ID:       "existing-id",
					Username: "existinguser",
					Email:    "existing@example.com",
					Password: hashedPw,
				})
			},
		},
		{
			name: "duplicate username",
			req: &domain.RegisterRequest{
				Username: "existinguser",
				Email:    "unique@example.com",
				Password: "Password123!",
			},
			wantErr: true,
			setup:   func() {},
		},
		{
			name: "duplicate email in different case",
			req: &domain.RegisterRequest{
				Username: "casedupe",
				Email:    "Existing@Example.com",
				Password: "Password123!",
			},
			wantErr: true,
			setup:   func() {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			err := service.Register(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "test-secret", 15*time.Minute, 7*24*time.Hour)

	hashedPw, _ := hash.Hash("CorrectPass123!")
	repo.Create(&domain.User{
		ID:       "user-1",
		Username: "grower",
		Email:    "grower@example.com",
		Password: hashedPw,
	})

	tests := []struct {
		name    string
		req     *domain.LoginRequest
		wantErr bool
	}{
		{
			name: "successful login",
			req: &domain.LoginRequest{
				Email:    "grower@example.com",
				Password: "CorrectPass123!",
			},
			wantErr: false,
		},
		{
			name: "wrong password",
			req: &domain.LoginRequest{
				Email:    "grower@example.com",
				Password: "WrongPass123!",
			},
			wantErr: true,
		},
		{
			name: "unknown email",
			req: &domain.LoginRequest{
				Email:    "nobody@example.com",
				Password: "CorrectPass123!",
			},
			wantErr: true,
		},
		{
			name: "email case is irrelevant",
			req: &domain.LoginRequest{
				Email:    "Grower@Example.com",
				Password: "CorrectPass123!",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := service.Login(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if res.AccessToken == "" || res.RefreshToken == "" {
				t.Error("login response missing tokens")
			}
			if res.User.Password != "" {
				t.Error("login response leaks password hash")
			}
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "test-secret", 15*time.Minute, 7*24*time.Hour)

	hashedPw, _ := hash.Hash("CorrectPass123!")
	repo.Create(&domain.User{
		ID:       "user-1",
		Username: "grower",
		Email:    "grower@example.com",
		Password: hashedPw,
	})

	login, err := service.Login(&domain.LoginRequest{
		Email:    "grower@example.com",
		Password: "CorrectPass123!",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	res, err := service.RefreshToken(&domain.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if res.AccessToken == "" {
		t.Error("refresh response missing access token")
	}

	if _, err := service.RefreshToken(&domain.RefreshTokenRequest{RefreshToken: "garbage"}); err == nil {
		t.Error("expected error for invalid refresh token")
	}

	// An access token is signed with the same secret but typed differently;
	// it must not pass as a refresh token.
	if _, err := service.RefreshToken(&domain.RefreshTokenRequest{RefreshToken: login.AccessToken}); err == nil {
		t.Error("expected error when an access token is presented for refresh")
	}

	delete(repo.users, "user-1")
	if _, err := service.RefreshToken(&domain.RefreshTokenRequest{RefreshToken: login.RefreshToken}); err == nil {
		t.Error("expected error for a refresh token of a deleted account")
	}
}
