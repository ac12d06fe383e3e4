package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/audit"
	"github.com/ketabyar/ketabyar/internal/auth"
	"github.com/ketabyar/ketabyar/internal/entities"
)

// ProfileController handles the authenticated user's own account.
type ProfileController struct {
	authService *auth.Service
}

// NewProfileController creates a new ProfileController.
func NewProfileController(authService *auth.Service) *ProfileController {
	return &ProfileController{authService: authService}
}

// GetProfile handles GET /api/me
func (pc *ProfileController) GetProfile(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := pc.authService.GetUserByID(userID)
	if err != nil {
		respondInternalError(c, err, "get profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangeLevelRequest carries the new reading level.
type ChangeLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

// ChangeLevel handles PUT /api/me/level
// Takes effect on the next page render; nothing stored is re-rendered.
func (pc *ProfileController) ChangeLevel(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req ChangeLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "level is required")
		return
	}

	level := entities.Level(req.Level)
	if !level.IsValid() {
		respondBadRequest(c, "unknown level: "+req.Level)
		return
	}

	if err := pc.authService.ChangeLevel(userID, level); err != nil {
		respondInternalError(c, err, "change level")
		return
	}

	c.JSON(http.StatusOK, gin.H{"level": level})
}

// ChangePasswordRequest carries a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword handles PUT /api/me/password
func (pc *ProfileController) ChangePassword(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "current_password and new_password are required")
		return
	}
	if err := pc.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidPassword):
			respondBadRequest(c, "current password is incorrect")
		case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "change password")
		}
		return
	}

	respondSuccess(c, "password changed")
}

// UsersController handles the admin user management surface.
type UsersController struct {
	store        UserStore
	auditService *audit.Service
}

// NewUsersController creates a new UsersController.
func NewUsersController(store UserStore, auditService *audit.Service) *UsersController {
	return &UsersController{
		store:        store,
		auditService: auditService,
	}
}

// ListUsers handles GET /api/admin/users (admin only).
func (uc *UsersController) ListUsers(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	users, total, err := uc.store.GetAllUsers(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    users,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	})
}

// ChangeRoleRequest carries the new role for a user.
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole handles PUT /api/admin/users/:id/role (admin only).
func (uc *UsersController) ChangeRole(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "role is required")
		return
	}

	role := entities.UserRole(req.Role)
	switch role {
	case entities.UserRoleAdmin, entities.UserRoleEditor, entities.UserRoleReader:
	default:
		respondBadRequest(c, "unknown role: "+req.Role)
		return
	}

	if _, err := uc.store.GetUserByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "get user")
		return
	}

	if err := uc.store.UpdateRole(userID, role); err != nil {
		respondInternalError(c, err, "update role")
		return
	}

	uc.auditService.LogAdmin(GetUserID(c), "role_change", "Changed user role", nil)

	c.JSON(http.StatusOK, gin.H{"role": role})
}

// DeleteUser handles DELETE /api/admin/users/:id (admin only).
func (uc *UsersController) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if userID == GetUserID(c) {
		respondBadRequest(c, "cannot delete your own account")
		return
	}

	user, err := uc.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "get user")
		return
	}

	if err := uc.store.DeleteUser(userID); err != nil {
		respondInternalError(c, err, "delete user")
		return
	}

	uc.auditService.LogDelete(GetUserID(c), "user", userID, user.Username)

	respondSuccess(c, "user deleted")
}
