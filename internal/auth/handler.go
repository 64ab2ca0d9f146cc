package auth

import (
	"errors"
	"net/http"
	"net/mail"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Machine-readable error codes surfaced to clients. No internals leak
// past this boundary.
const (
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeInvalidResetCode   = "INVALID_RESET_CODE"
	CodeResetCodeExpired   = "RESET_CODE_EXPIRED"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type accountResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
	Bio       string `json:"bio"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "invalid request body")
		return
	}

	if err := validateRegisterRequest(&req); err != nil {
		h.log.Warn("invalid register request",
			zap.String("username", req.Username),
			zap.String("error", err.Error()))
		validationError(c, err.Error())
		return
	}

	err := h.service.Register(RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registered"})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "invalid request body")
		return
	}

	if err := validateLoginRequest(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	result, err := h.service.Login(req.Identifier, req.Password, ClientContext{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": result.AccessToken,
		"tokenType":   result.TokenType,
		"expiresIn":   result.ExpiresIn,
		"user":        toAccountResponse(result.Account),
	})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "invalid request body")
		return
	}

	if !isValidEmail(req.Email) {
		validationError(c, "invalid email format")
		return
	}

	message, err := h.service.ForgotPassword(req.Email)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "invalid request body")
		return
	}

	if err := validateResetPasswordRequest(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if err := h.service.ResetPassword(req.Email, req.Code, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// Profile returns the public projection of the authenticated account.
func (h *Handler) Profile(c *gin.Context) {
	accountID, ok := AccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": CodeInvalidCredentials})
		return
	}

	account, err := h.service.GetProfile(accountID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccountResponse(account))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": CodeEmailAlreadyExists})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": CodeInvalidCredentials})
	case errors.Is(err, ErrAccountLocked):
		c.JSON(http.StatusLocked, gin.H{"error": CodeAccountLocked})
	case errors.Is(err, ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": CodeAccountNotFound})
	case errors.Is(err, ErrInvalidResetCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidResetCode})
	case errors.Is(err, ErrResetCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeResetCodeExpired})
	default:
		h.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": CodeInternalError})
	}
}

func validationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   CodeValidationError,
		"message": message,
	})
}

func validateRegisterRequest(req *registerRequest) error {
	if len(req.Username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if !isValidEmail(req.Email) {
		return errors.New("invalid email format")
	}
	if len(req.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

func validateLoginRequest(req *loginRequest) error {
	if req.Identifier == "" {
		return errors.New("identifier is required")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

func validateResetPasswordRequest(req *resetPasswordRequest) error {
	if !isValidEmail(req.Email) {
		return errors.New("invalid email format")
	}
	if len(req.Code) < 4 {
		return errors.New("code is required")
	}
	if len(req.NewPassword) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func toAccountResponse(account *Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		AvatarURL: account.AvatarURL,
		Bio:       account.Bio,
	}
}
