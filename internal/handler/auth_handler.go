package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/pkg/jwtutil"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

// AuthHandler serves signup, login and identity lookups.
type AuthHandler struct {
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

func NewAuthHandler(db *gorm.DB, jwt *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

// Signup creates a user together with their trial tenant. The tenant
// starts in trial status and is the user's default.
func (h *AuthHandler) Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("signup")

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		TenantName string `json:"tenant_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" || req.TenantName == "" {
		prometheus.RecordAuthError("incomplete_signup")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and tenant_name are required"})
	}

	var count int64
	h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Signup with existing email", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_taken")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	user := model.User{Email: req.Email, Name: req.Name, Password: string(hash)}
	tenant := model.Tenant{Name: req.TenantName, Plan: "standard", Status: model.TenantTrial, MaxUsers: 5}

	defer prometheus.TrackStoreOperation("insert")(time.Now())
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&user); result.Error != nil {
			return result.Error
		}
		tenant.OwnerID = user.ID
		if result := tx.Create(&tenant); result.Error != nil {
			return result.Error
		}
		association := model.UserTenant{
			UserID:    user.ID,
			TenantID:  tenant.ID,
			Role:      "owner",
			IsDefault: true,
			Active:    true,
		}
		if result := tx.Create(&association); result.Error != nil {
			return result.Error
		}
		return tx.Model(&model.User{}).Where("id = ?", user.ID).Update("tenant_id", tenant.ID).Error
	})
	if err != nil {
		log.Error("Signup transaction failed", zap.Error(err))
		prometheus.RecordAuthError("signup_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	token, err := h.jwt.GenerateTokenWithTenant(user.Email, user.ID, &tenant.ID, tenant.Name, "owner")
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User signed up with trial tenant",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("tenant_name", tenant.Name))

	return c.JSON(http.StatusCreated, echo.Map{
		"token":  token,
		"user":   echo.Map{"id": user.ID, "email": user.Email, "name": user.Name},
		"tenant": tenant,
	})
}

// Login verifies credentials and issues a token scoped to the requested
// tenant, or the user's default tenant when none is given.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TenantID *uint  `json:"tenant_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackStoreOperation("query")(time.Now())
	var user model.User
	result := h.db.Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	selectedTenantID := user.TenantID
	if req.TenantID != nil {
		var association model.UserTenant
		result := h.db.Where("user_id = ? AND tenant_id = ? AND active = ?", user.ID, *req.TenantID, true).First(&association)
		if result.Error != nil {
			log.Error("User does not have access to the specified tenant",
				zap.String("email", req.Email),
				zap.Uint("tenant_id", *req.TenantID))
			prometheus.RecordAuthError("tenant_access_denied")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified tenant"})
		}
		selectedTenantID = req.TenantID
	}

	if selectedTenantID == nil {
		log.Error("User has no tenant", zap.String("email", req.Email))
		prometheus.RecordAuthError("no_tenant")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no tenant associated with this account"})
	}

	var tenant model.Tenant
	if result := h.db.First(&tenant, *selectedTenantID); result.Error != nil {
		log.Error("Tenant not found", zap.Uint("tenant_id", *selectedTenantID))
		prometheus.RecordAuthError("tenant_not_found")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant lookup failed"})
	}

	if tenant.Status == model.TenantSuspended {
		log.Warn("Login refused for suspended tenant",
			zap.String("email", req.Email),
			zap.Uint("tenant_id", tenant.ID))
		prometheus.RecordAuthError("tenant_suspended")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant is suspended"})
	}

	var role string
	var association model.UserTenant
	if result := h.db.Select("role").Where("user_id = ? AND tenant_id = ?", user.ID, tenant.ID).First(&association); result.Error == nil {
		role = association.Role
	}

	token, err := h.jwt.GenerateTokenWithTenant(user.Email, user.ID, &tenant.ID, tenant.Name, role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in with tenant context",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("tenant_name", tenant.Name),
		zap.String("role", role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  echo.Map{"id": user.ID, "email": user.Email, "name": user.Name},
		"tenant": echo.Map{
			"id":     tenant.ID,
			"name":   tenant.Name,
			"plan":   tenant.Plan,
			"status": tenant.Status,
			"role":   role,
		},
	})
}

// Me returns the authenticated identity extracted from the token.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var user model.User
	if result := h.db.First(&user, userID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	tenant, _ := tenantID(c)
	return c.JSON(http.StatusOK, echo.Map{
		"user":      echo.Map{"id": user.ID, "email": user.Email, "name": user.Name},
		"tenant_id": tenant,
		"role":      c.Get("user_role"),
	})
}
