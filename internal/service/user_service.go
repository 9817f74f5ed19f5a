package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/auth"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/validation"
)

const (
	msgUserNotFound       = "user not found"
	msgBadCredentials     = "incorrect email or password"
	msgAccountSuspended   = "account is suspended"
	initialPasswordLength = 12
	passwordAlphabet      = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	defaultUserPageSize   = 20
	maxUserPageSize       = 100
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, caller *models.User, search string, page, limit int) (*models.UsersResponse, error)
	CreateUser(ctx context.Context, caller *models.User, req *models.CreateUserRequest) (*models.CreateUserResponse, error)
	UpdateProfile(ctx context.Context, caller *models.User, id string, req *models.UpdateProfileRequest) (*models.User, error)
	EditUser(ctx context.Context, caller *models.User, id string, req *models.EditUserRequest) (*models.User, error)
}

type userService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
	now    func() time.Time
	logger zerolog.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenIssuer, logger zerolog.Logger) UserService {
	return &userService{
		users:  users,
		tokens: tokens,
		now:    time.Now,
		logger: logger,
	}
}

func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:          uuid.New().String(),
		FullName:    strings.TrimSpace(req.FullName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber: req.PhoneNumber,
		Role:        models.RoleUser,
		Status:      models.UserStatusActive,
		Skills:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to hash password")
	}

	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("User registered")

	return user, nil
}

func (s *userService) create(ctx context.Context, user *models.User) error {
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.Conflict("a user with this email already exists")
		}
		return apperrors.Unexpectedf(err, "failed to create user")
	}
	return nil
}

func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation(msgBadCredentials)
		}
		return nil, apperrors.Unexpectedf(err, "failed to load user")
	}
	if err := user.CheckPassword(req.Password); err != nil {
		s.logger.Warn().
			Str("user_id", user.ID).
			Msg("Login rejected: wrong password")
		return nil, apperrors.Validation(msgBadCredentials)
	}
	if !user.IsActive() {
		return nil, apperrors.Forbidden(msgAccountSuspended)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to issue token")
	}

	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("User logged in")

	return &models.LoginResponse{
		Token:  token,
		UserID: user.ID,
		Role:   user.Role,
	}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *userService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("authentication token is missing")
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("token user no longer exists")
		}
		return nil, apperrors.Unexpectedf(err, "failed to load token user")
	}
	if !user.IsActive() {
		return nil, apperrors.Forbidden(msgAccountSuspended)
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get user", msgUserNotFound)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, caller *models.User, search string, page, limit int) (*models.UsersResponse, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	page, limit, offset := paging(page, limit, defaultUserPageSize, maxUserPageSize)
	users, total, err := s.users.List(ctx, models.UserFilter{
		Search: strings.TrimSpace(search),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to list users")
	}

	return &models.UsersResponse{
		Users: users,
		Total: total,
		Pages: models.Pages(total, limit),
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *userService) CreateUser(ctx context.Context, caller *models.User, req *models.CreateUserRequest) (*models.CreateUserResponse, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !models.HasCapability(caller, models.RoleAdmin) {
		return nil, apperrors.Forbidden("only admins can create users")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	password, err := generatePassword(initialPasswordLength)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to generate password")
	}

	now := s.now().UTC()
	user := &models.User{
		ID:          uuid.New().String(),
		FullName:    strings.TrimSpace(req.FullName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		Status:      models.UserStatusActive,
		Designation: req.Designation,
		Skills:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to hash password")
	}

	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", user.Role).
		Str("created_by", caller.ID).
		Msg("User created by admin")

	return &models.CreateUserResponse{User: user, InitialPassword: password}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, caller *models.User, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if caller.ID != id && !models.HasCapability(caller, models.RoleAdmin) {
		return nil, apperrors.Forbidden("you can only update your own profile")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get user", msgUserNotFound)
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Designation != nil {
		user.Designation = *req.Designation
	}
	if req.ProfilePic != nil {
		user.ProfilePic = *req.ProfilePic
	}
	if req.Skills != nil {
		user.Skills = req.Skills
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fromRepo(err, "update user", msgUserNotFound)
	}
	return user, nil
}

func (s *userService) EditUser(ctx context.Context, caller *models.User, id string, req *models.EditUserRequest) (*models.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !models.HasCapability(caller, models.RoleAdmin) {
		return nil, apperrors.Forbidden("only admins can edit users")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get user", msgUserNotFound)
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Status != nil {
		user.Status = models.UserStatus(*req.Status)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fromRepo(err, "update user", msgUserNotFound)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("status", user.Status.String()).
		Str("edited_by", caller.ID).
		Msg("User edited by admin")

	return user, nil
}

func generatePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
