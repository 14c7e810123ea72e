package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Register: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		log.Printf("Register: service error for username %s: %v", req.UserName, err)
		fail(c, err)
		return
	}

	ok(c, user)
}

// Login 用户登录，返回 JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Login: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		log.Printf("Login: service error for username %s: %v", req.UserName, err)
		fail(c, err)
		return
	}

	ok(c, resp)
}

// Profile 当前用户信息
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	user, err := h.authService.GetProfile(userID)
	if err != nil {
		log.Printf("Profile: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, user)
}

// UpdateProfile 更新当前用户信息
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("UpdateProfile: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	user, err := h.authService.UpdateProfile(userID, &req)
	if err != nil {
		log.Printf("UpdateProfile: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, user)
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("ChangePassword: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := h.authService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		log.Printf("ChangePassword: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}
