package dto

import "time"

// Request DTOs

type RegisterRequest struct {
	Name      string `json:"name" validate:"required,min=6,max=25"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phonedigits"`
	Password  string `json:"password" validate:"required,strongpassword"`
	Role      string `json:"role" validate:"omitempty,oneof=patient dentist admin"`
	Specialty string `json:"specialty" validate:"required_if=Role dentist,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type UpdateUserRoleRequest struct {
	Role      string `json:"role" validate:"required,oneof=patient dentist admin"`
	Specialty string `json:"specialty" validate:"required_if=Role dentist,max=50"`
}

// Response DTOs

type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Specialty *string   `json:"specialty,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AuthResponse struct {
	User      *UserResponse `json:"user"`
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expiresIn"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}
