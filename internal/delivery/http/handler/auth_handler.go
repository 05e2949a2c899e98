package handler

import (
	"net/http"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/delivery/http/middleware"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
	"dental-clinic-api/pkg/validator"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	userUsecase usecase.UserUsecase
	validator   *validator.CustomValidator
	errors      errorWriter
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, userUsecase usecase.UserUsecase, validator *validator.CustomValidator, exposeInternal bool) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		userUsecase: userUsecase,
		validator:   validator,
		errors:      errorWriter{exposeInternal: exposeInternal},
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Public sign-up creates a patient. Dentist and admin accounts require an admin bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Register Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	// nil for anonymous callers
	actor, _ := middleware.GetPrincipal(r.Context())

	result, err := h.authUsecase.Register(r.Context(), actor, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to register user")
		return
	}

	response.Success(w, http.StatusCreated, "User registered successfully", result)
}

// Login handles user login
// @Summary Login user
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), &req)
	if err != nil {
		h.errors.write(w, err, "Failed to login")
		return
	}

	response.Success(w, http.StatusOK, "Login successful", result)
}

// Logout revokes the token used for this request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	if err := h.authUsecase.Logout(r.Context(), actor); err != nil {
		h.errors.write(w, err, "Failed to logout")
		return
	}

	response.Success(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	user, err := h.authUsecase.GetProfile(r.Context(), actor)
	if err != nil {
		h.errors.write(w, err, "Failed to get profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile retrieved successfully", user)
}

func (h *AuthHandler) ActiveDentists(w http.ResponseWriter, r *http.Request) {
	result, err := h.userUsecase.ListActiveDentists(r.Context())
	if err != nil {
		h.errors.write(w, err, "Failed to get dentists")
		return
	}

	response.Success(w, http.StatusOK, "Dentists retrieved successfully", result)
}

// SearchUsers matches ?q= against the user id, name or email.
func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.userUsecase.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.errors.write(w, err, "Failed to search users")
		return
	}

	response.Success(w, http.StatusOK, "Users retrieved successfully", result)
}

func (h *AuthHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	userID, ok := pathID(r, "userId")
	if !ok {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req dto.UpdateUserStatusRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.userUsecase.SetActive(r.Context(), actor, userID, *req.IsActive)
	if err != nil {
		h.errors.write(w, err, "Failed to update user status")
		return
	}

	message := "User activated successfully"
	if !*req.IsActive {
		message = "User deactivated successfully"
	}
	response.Success(w, http.StatusOK, message, user)
}

func (h *AuthHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	userID, ok := pathID(r, "userId")
	if !ok {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req dto.UpdateUserRoleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.userUsecase.ChangeRole(r.Context(), actor, userID, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to change user role")
		return
	}

	response.Success(w, http.StatusOK, "User role updated successfully", user)
}

func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	userID, ok := pathID(r, "userId")
	if !ok {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	if err := h.userUsecase.DeleteUser(r.Context(), actor, userID); err != nil {
		h.errors.write(w, err, "Failed to delete user")
		return
	}

	response.Success(w, http.StatusOK, "User deleted successfully", nil)
}
