package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
	"github.com/Gopher0727/StudyRoom/internal/utils"
	pkgutils "github.com/Gopher0727/StudyRoom/pkg/utils"
)

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUserNameTaken     = errors.New("用户名已被占用")
	ErrEmailTaken        = errors.New("邮箱已被注册")
	ErrInvalidUserName   = errors.New("用户名格式不合法（3-20位字母数字下划线）")
	ErrInvalidEmail      = errors.New("邮箱格式不合法")
	ErrWeakPassword      = errors.New("密码至少8个字符")
	ErrWrongCredentials  = errors.New("用户名或密码错误")
	ErrWrongOldPassword  = errors.New("原密码错误")
)

// AuthService 认证与用户服务
type AuthService struct {
	userRepo *repositories.UserRepository
	tokens   *pkgutils.TokenManager
}

// NewAuthService 创建认证服务实例
func NewAuthService(userRepo *repositories.UserRepository, tokens *pkgutils.TokenManager) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	UserName string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	UserName string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserDTO 用户数据传输对象
type UserDTO struct {
	ID        uint   `json:"id"`
	UserName  string `json:"username"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

func toUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		UserName:  user.UserName,
		Email:     user.Email,
		Nickname:  user.Nickname,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
	}
}

// Register 注册新用户
func (s *AuthService) Register(req *RegisterRequest) (*UserDTO, error) {
	if !utils.ValidateUserName(req.UserName) {
		return nil, ErrInvalidUserName
	}
	if !utils.ValidateEmail(req.Email) {
		return nil, ErrInvalidEmail
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, ErrWeakPassword
	}

	if _, err := s.userRepo.GetByUserName(req.UserName); err == nil {
		return nil, ErrUserNameTaken
	}
	if _, err := s.userRepo.GetByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserName:     req.UserName,
		Email:        req.Email,
		PasswordHash: hash,
		Nickname:     req.Nickname,
		Role:         "student",
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// Login 用户登录，签发 JWT
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByUserName(req.UserName)
	if err != nil {
		// 不暴露用户是否存在
		return nil, ErrWrongCredentials
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrWrongCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.UserName, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{Token: token, User: toUserDTO(user)}, nil
}

// GetProfile 获取用户资料
func (s *AuthService) GetProfile(userID uint) (*UserDTO, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	dto := toUserDTO(user)
	return &dto, nil
}

// UpdateProfileRequest 更新资料请求，nil 字段不变更
type UpdateProfileRequest struct {
	Nickname  *string `json:"nickname"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateProfile 更新昵称、头像
func (s *AuthService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*UserDTO, error) {
	fields := map[string]any{}
	if req.Nickname != nil {
		fields["nickname"] = *req.Nickname
	}
	if req.AvatarURL != nil {
		fields["avatar_url"] = *req.AvatarURL
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(userID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(userID)
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return ErrUserNotFound
	}
	if !utils.CheckPassword(user.PasswordHash, oldPassword) {
		return ErrWrongOldPassword
	}
	if !utils.ValidatePassword(newPassword) {
		return ErrWeakPassword
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(userID, map[string]any{"password_hash": hash})
}
