package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"annlin/database"
	"annlin/middleware"
	"annlin/models"
	"annlin/services"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

func (h *Handler) issueToken(c *fiber.Ctx, status int, user *models.User) error {
	token, err := middleware.NewToken(h.cfg.JWTSecret, user, h.sessionDuration())
	if err != nil {
		return h.fail(c, "auth.token", "Failed to generate token", err)
	}
	return c.Status(status).JSON(AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}

// requireCredentials checks that a new account has both a username and a
// password before the field rules run.
func (h *Handler) requireCredentials(input models.UserInput) error {
	verr := h.validator.Struct(input)
	if input.Username == "" {
		verr.Add("username", "is required")
	}
	if input.Password == "" {
		verr.Add("password", "is required")
	}
	return verr.OrNil()
}

// CheckSetup returns whether the initial setup has been completed
func (h *Handler) CheckSetup(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"setupComplete": database.IsSetupComplete(h.db),
	})
}

// Setup creates the initial admin user
func (h *Handler) Setup(c *fiber.Ctx) error {
	if database.IsSetupComplete(h.db) {
		return badRequest(c, "Setup already complete")
	}

	var input models.UserInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.requireCredentials(input); err != nil {
		return h.fail(c, "auth.setup", "Failed to create user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.fail(c, "auth.setup", "Failed to hash password", err)
	}

	// The first account is always an admin.
	user := models.User{
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		return h.fail(c, "auth.setup", "Failed to create user", err)
	}

	h.audit.Log(services.Actor{UserID: user.ID, Username: user.Username, IP: c.IP()},
		models.AuditActionUserCreate, models.EntityUser, user.ID, user.ToResponse())
	return h.issueToken(c, fiber.StatusCreated, &user)
}

// Login authenticates a user and returns a JWT token
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(req).OrNil(); err != nil {
		return h.fail(c, "auth.login", "Login failed", err)
	}

	var user models.User
	err := h.db.WithContext(c.UserContext()).Where("username = ?", req.Username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return h.fail(c, "auth.login", "Login failed", err)
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	h.audit.Log(services.Actor{UserID: user.ID, Username: user.Username, IP: c.IP()},
		models.AuditActionLogin, models.EntityUser, user.ID, nil)
	return h.issueToken(c, fiber.StatusOK, &user)
}

// GetCurrentUser returns the currently authenticated user
func (h *Handler) GetCurrentUser(c *fiber.Ctx) error {
	var user models.User
	err := h.db.WithContext(c.UserContext()).First(&user, "id = ?", middleware.GetUserID(c)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return h.fail(c, "users.current", "Failed to fetch user", err)
	}
	return c.JSON(user.ToResponse())
}

// ListUsers returns all users (admin only)
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.db.WithContext(c.UserContext()).Order("username").Find(&users).Error; err != nil {
		return h.fail(c, "users.list", "Failed to fetch users", err)
	}

	responses := make([]models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return c.JSON(responses)
}

func (h *Handler) usernameTaken(c *fiber.Ctx, username, exceptID string) (bool, error) {
	var count int64
	q := h.db.WithContext(c.UserContext()).Model(&models.User{}).Where("username = ?", username)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// CreateUser creates a new user (admin only)
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var input models.UserInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.requireCredentials(input); err != nil {
		return h.fail(c, "users.create", "Failed to create user", err)
	}
	if input.Role == "" {
		input.Role = models.RoleViewer
	}

	taken, err := h.usernameTaken(c, input.Username, "")
	if err != nil {
		return h.fail(c, "users.create", "Failed to create user", err)
	}
	if taken {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already exists"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.fail(c, "users.create", "Failed to hash password", err)
	}

	user := models.User{
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return h.audit.Record(tx, actor(c), models.AuditActionUserCreate, models.EntityUser, user.ID, user.ToResponse())
	})
	if err != nil {
		return h.fail(c, "users.create", "Failed to create user", err)
	}

	return c.Status(fiber.StatusCreated).JSON(user.ToResponse())
}

// UpdateUser updates a user (admin only)
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	var user models.User
	err := h.db.WithContext(c.UserContext()).First(&user, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return h.fail(c, "users.update", "Failed to update user", err)
	}

	var input models.UserInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(input).OrNil(); err != nil {
		return h.fail(c, "users.update", "Failed to update user", err)
	}

	before := user.ToResponse()
	if input.Username != "" && input.Username != user.Username {
		taken, err := h.usernameTaken(c, input.Username, user.ID)
		if err != nil {
			return h.fail(c, "users.update", "Failed to update user", err)
		}
		if taken {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already exists"})
		}
		user.Username = input.Username
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return h.fail(c, "users.update", "Failed to hash password", err)
		}
		user.PasswordHash = string(hash)
	}
	if input.Role != "" {
		// Admins cannot demote themselves and lock everyone out.
		if user.ID == middleware.GetUserID(c) && input.Role != models.RoleAdmin {
			return badRequest(c, "Cannot change your own role")
		}
		user.Role = input.Role
	}

	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return h.audit.Record(tx, actor(c), models.AuditActionUserUpdate, models.EntityUser, user.ID,
			map[string]interface{}{"before": before, "after": user.ToResponse()})
	})
	if err != nil {
		return h.fail(c, "users.update", "Failed to update user", err)
	}

	return c.JSON(user.ToResponse())
}

// DeleteUser deletes a user (admin only)
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == middleware.GetUserID(c) {
		return badRequest(c, "Cannot delete your own account")
	}

	var user models.User
	err := h.db.WithContext(c.UserContext()).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return h.fail(c, "users.delete", "Failed to delete user", err)
	}

	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}
		return h.audit.Record(tx, actor(c), models.AuditActionUserDelete, models.EntityUser, user.ID, user.ToResponse())
	})
	if err != nil {
		return h.fail(c, "users.delete", "Failed to delete user", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
