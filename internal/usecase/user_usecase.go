package usecase

import (
	"context"
	"errors"
	"strings"

	"dental-clinic-api/internal/converter"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/domain/repository"
	"dental-clinic-api/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrCannotModifySelf = errors.New("administrators cannot deactivate, delete or change the role of their own account")

type UserUsecase interface {
	SearchUsers(ctx context.Context, query string) (*dto.UserListResponse, error)
	ListActiveDentists(ctx context.Context) (*dto.UserListResponse, error)
	SetActive(ctx context.Context, actor *entity.Principal, userID uint, isActive bool) (*dto.UserResponse, error)
	ChangeRole(ctx context.Context, actor *entity.Principal, userID uint, req *dto.UpdateUserRoleRequest) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, actor *entity.Principal, userID uint) error
}

type userUsecase struct {
	tx           repository.Transactor
	log          *logrus.Logger
	userRepo     repository.UserRepository
	sessionStore repository.SessionStore
	auditService service.AuditService
}

func NewUserUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	sessionStore repository.SessionStore,
	auditService service.AuditService,
) UserUsecase {
	return &userUsecase{
		tx:           tx,
		log:          log,
		userRepo:     userRepo,
		sessionStore: sessionStore,
		auditService: auditService,
	}
}

func (u *userUsecase) SearchUsers(ctx context.Context, query string) (*dto.UserListResponse, error) {
	users, err := u.userRepo.Search(u.tx.Reader(ctx), entity.UserFilter{Query: query})
	if err != nil {
		u.log.Warnf("Failed to search users: %+v", err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users: converter.UsersToResponses(users),
		Total: len(users),
	}, nil
}

func (u *userUsecase) ListActiveDentists(ctx context.Context) (*dto.UserListResponse, error) {
	dentists, err := u.userRepo.FindActiveDentists(u.tx.Reader(ctx))
	if err != nil {
		u.log.Warnf("Failed to list active dentists: %+v", err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users: converter.UsersToResponses(dentists),
		Total: len(dentists),
	}, nil
}

// SetActive toggles the account. Deactivation also revokes every session of the user.
func (u *userUsecase) SetActive(ctx context.Context, actor *entity.Principal, userID uint, isActive bool) (*dto.UserResponse, error) {
	if !actor.HasRole(entity.RoleAdmin) {
		return nil, ErrForbidden
	}
	if actor.UserID == userID && !isActive {
		return nil, ErrCannotModifySelf
	}

	var user *entity.User
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		user, err = u.userRepo.FindByID(tx, userID)
		if err != nil {
			u.log.Warnf("Failed to find user %d: %+v", userID, err)
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		previous := user.IsActive
		if _, err := u.userRepo.UpdateStatus(tx, userID, isActive); err != nil {
			u.log.Warnf("Failed to update status of user %d: %+v", userID, err)
			return err
		}
		user.IsActive = isActive

		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionUserStatusChange, "user", userID,
			map[string]bool{"is_active": previous}, map[string]bool{"is_active": isActive})
	})
	if err != nil {
		return nil, err
	}

	if !isActive {
		u.revokeSessions(ctx, userID)
	}

	u.log.Infof("User %d active=%t by admin %d", userID, isActive, actor.UserID)
	return converter.UserToResponse(user), nil
}

// ChangeRole is the only path that grants or removes the dentist and admin roles.
func (u *userUsecase) ChangeRole(ctx context.Context, actor *entity.Principal, userID uint, req *dto.UpdateUserRoleRequest) (*dto.UserResponse, error) {
	if !actor.HasRole(entity.RoleAdmin) {
		return nil, ErrForbidden
	}
	if actor.UserID == userID {
		return nil, ErrCannotModifySelf
	}

	role := entity.Role(req.Role)
	var specialty *string
	if role == entity.RoleDentist {
		s := strings.TrimSpace(req.Specialty)
		if s == "" {
			return nil, ErrSpecialtyRequired
		}
		specialty = &s
	}

	var user *entity.User
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		user, err = u.userRepo.FindByID(tx, userID)
		if err != nil {
			u.log.Warnf("Failed to find user %d: %+v", userID, err)
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		previous := user.Role
		if _, err := u.userRepo.UpdateRole(tx, userID, role, specialty); err != nil {
			u.log.Warnf("Failed to change role of user %d: %+v", userID, err)
			return err
		}
		user.Role = role
		user.Specialty = specialty

		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionUserRoleChange, "user", userID,
			map[string]string{"role": string(previous)}, map[string]string{"role": string(role)})
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("User %d role changed to %s by admin %d", userID, role, actor.UserID)
	return converter.UserToResponse(user), nil
}

// DeleteUser hard-deletes the user together with their appointments, penalties and records.
func (u *userUsecase) DeleteUser(ctx context.Context, actor *entity.Principal, userID uint) error {
	if !actor.HasRole(entity.RoleAdmin) {
		return ErrForbidden
	}
	if actor.UserID == userID {
		return ErrCannotModifySelf
	}

	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		user, err := u.userRepo.FindByID(tx, userID)
		if err != nil {
			u.log.Warnf("Failed to find user %d: %+v", userID, err)
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		if _, err := u.userRepo.Delete(tx, userID); err != nil {
			u.log.Warnf("Failed to delete user %d: %+v", userID, err)
			return err
		}

		return u.auditService.LogDelete(ctx, tx, &actor.UserID, entity.AuditActionUserDelete, "user", userID, converter.UserToResponse(user))
	})
	if err != nil {
		return err
	}

	u.revokeSessions(ctx, userID)
	u.log.Infof("User %d deleted by admin %d", userID, actor.UserID)
	return nil
}

func (u *userUsecase) revokeSessions(ctx context.Context, userID uint) {
	if err := u.sessionStore.RevokeAll(ctx, userID); err != nil {
		// The auth middleware re-checks is_active, so stale tokens stay unusable.
		u.log.Warnf("Failed to revoke sessions of user %d: %+v", userID, err)
	}
}
