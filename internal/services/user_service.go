package services

import (
	"errors"
	"fmt"
	"log"

	"go-todo-api/internal/models"
	"go-todo-api/internal/repositories"
)

// ErrInvalidCredentials はログイン失敗時のエラーです。
// ユーザーが存在しない場合もパスワードが違う場合も同じエラーを返します
// (ユーザー名の存在を推測されないため)。
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService はユーザー関連のビジネスロジックを扱います。
type UserService struct {
	userRepo *repositories.UserRepository
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(userRepo *repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterUser はユーザーを登録します。
// ユーザー名が既に使われている場合は repositories.ErrDuplicateUsername を返します。
func (s *UserService) RegisterUser(req models.UserRegisterRequest) (*models.User, error) {
	// 既存ユーザーの確認。ユニーク制約だけに頼らず先に調べる
	// (同時登録のレースはCreate側の1062チェックが拾う)。
	_, err := s.userRepo.FindByUsername(req.Username)
	if err == nil {
		return nil, repositories.ErrDuplicateUsername
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := repositories.HashPassword(req.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Username:     req.Username,
		PasswordHash: hashedPassword,
	}

	return s.userRepo.Create(newUser)
}

// AuthenticateUser はユーザーを認証し、成功したらユーザーを返します。
func (s *UserService) AuthenticateUser(req models.UserLoginRequest) (*models.User, error) {
	foundUser, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := repositories.VerifyPassword(foundUser.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return foundUser, nil
}
