package service

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

type UserService struct {
	repo       domain.UserRepository
	activity   domain.ActivityService
	logger     logger.Logger
	bcryptCost int
}

func NewUserService(
	repo domain.UserRepository,
	activity domain.ActivityService,
	logger logger.Logger,
) *UserService {
	return &UserService{
		repo:       repo,
		activity:   activity,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func validateRegistration(reg *domain.Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Image = strings.TrimSpace(reg.Image)

	switch {
	case reg.Name == "":
		return domain.Validation("name is required")
	case reg.Username == "":
		return domain.Validation("username is required")
	case strings.ContainsAny(reg.Username, " \t\n/"):
		return domain.Validation("username must not contain spaces or slashes")
	case reg.Email == "":
		return domain.Validation("email is required")
	case reg.Password == "":
		return domain.Validation("password is required")
	}

	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return domain.Validation("email is invalid")
	}
	if reg.Image != "" {
		if u, err := url.Parse(reg.Image); err != nil || u.Scheme == "" {
			return domain.Validation("image must be an absolute URI")
		}
	}
	return nil
}

// CreateUser registers a user. The password is stored only as a bcrypt hash.
func (s *UserService) CreateUser(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := validateRegistration(&reg); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByUsername(ctx, reg.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	existing, err = s.repo.FindByEmail(ctx, reg.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	image := reg.Image
	if image == "" {
		image = fmt.Sprintf(domain.DefaultAvatarURL, url.QueryEscape(reg.Email))
	}

	user := &domain.User{
		Name:         reg.Name,
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		Image:        image,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Kullanıcı oluşturuldu", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})
	s.activity.Record(ctx, domain.EntityTypeUser, user.ID, domain.ActionTypeCreate, user.ID,
		fmt.Sprintf("registered as %s", user.Username))

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int) (*domain.UserPage, error) {
	page, limit = domain.NormalizePage(page, limit)

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.List(ctx, limit, domain.Offset(page, limit))
	if err != nil {
		return nil, err
	}

	return &domain.UserPage{
		Users:      users,
		TotalCount: total,
		Page:       page,
		TotalPages: domain.TotalPages(total, limit),
	}, nil
}

func (s *UserService) VerifyCredential(plainPassword, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plainPassword)) == nil
}

// Login returns the user matching email and password. Unknown emails and wrong
// passwords fail with the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !s.VerifyCredential(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
