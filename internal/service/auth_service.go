package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/repository"
	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	academicSuffixes = []string{".edu", ".ac.us"}
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type Profile struct {
	User  *model.User           `json:"user"`
	Stats *repository.UserStats `json:"stats"`
}

type AuthService struct {
	UserRepo    *repository.UserRepository
	AttemptRepo *repository.QuizAttemptRepository
	Cfg         *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, attemptRepo *repository.QuizAttemptRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		AttemptRepo: attemptRepo,
		Cfg:         cfg,
	}
}

// AcademicInstitution .edu / .ac.us 邮箱返回由域名推出的学校名
func AcademicInstitution(email string) (string, bool) {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return "", false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	for _, suffix := range academicSuffixes {
		if strings.HasSuffix(domain, suffix) {
			name := strings.TrimSuffix(domain, suffix)
			words := strings.FieldsFunc(name, func(r rune) bool { return r == '.' })
			for i, w := range words {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
			return strings.Join(words, " "), true
		}
	}
	return "", false
}

func (s *AuthService) Register(req RegisterRequest) (*AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return nil, util.NewValidationError("name", "name is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, util.NewValidationError("email", "invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, util.NewValidationError("password", "password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
	}
	user.Institution, user.IsAcademic = AcademicInstitution(email)

	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	logger.Log.Info("User registered",
		zap.Uint("userId", user.ID),
		zap.Bool("academic", user.IsAcademic),
	)
	return s.issue(user)
}

func (s *AuthService) Login(req LoginRequest) (*AuthResult, error) {
	user, err := s.UserRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.UserRepo.UpdateLastLogin(user.ID, now); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
	}
	user.LastLogin = &now
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Profile 当前用户信息与作答统计
func (s *AuthService) Profile(userID uint) (*Profile, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.AttemptRepo.StatsByUser(userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Stats: stats}, nil
}
