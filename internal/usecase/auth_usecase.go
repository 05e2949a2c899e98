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
	"dental-clinic-api/pkg/jwt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrPhoneAlreadyExists = errors.New("phone already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrPrivilegedRole     = errors.New("only an administrator can create dentist or admin accounts")
	ErrSpecialtyRequired  = errors.New("specialty is required for dentists")
)

type AuthUsecase interface {
	Register(ctx context.Context, actor *entity.Principal, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, actor *entity.Principal) error
	GetProfile(ctx context.Context, actor *entity.Principal) (*dto.UserResponse, error)
	// CreateAdmin provisions an admin account without a calling principal. Used by the CLI.
	CreateAdmin(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	// Authenticate resolves a bearer token into the calling principal.
	Authenticate(ctx context.Context, token string) (*entity.Principal, error)
}

type authUsecase struct {
	tx           repository.Transactor
	log          *logrus.Logger
	userRepo     repository.UserRepository
	sessionStore repository.SessionStore
	auditService service.AuditService
	jwtService   *jwt.JWTService
}

func NewAuthUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	sessionStore repository.SessionStore,
	auditService service.AuditService,
	jwtService *jwt.JWTService,
) AuthUsecase {
	return &authUsecase{
		tx:           tx,
		log:          log,
		userRepo:     userRepo,
		sessionStore: sessionStore,
		auditService: auditService,
		jwtService:   jwtService,
	}
}

// Register creates a user. Patients may self-register; dentist and admin accounts
// can only be created by an authenticated admin.
func (u *authUsecase) Register(ctx context.Context, actor *entity.Principal, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	role := entity.Role(req.Role)
	if role == "" {
		role = entity.RolePatient
	}
	if role.IsPrivileged() && !actor.HasRole(entity.RoleAdmin) {
		return nil, ErrPrivilegedRole
	}

	user, err := u.createUser(ctx, actor, role, req)
	if err != nil {
		return nil, err
	}

	return u.issueToken(ctx, user)
}

func (u *authUsecase) CreateAdmin(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	user, err := u.createUser(ctx, nil, entity.RoleAdmin, req)
	if err != nil {
		return nil, err
	}

	u.log.Infof("Admin account %d created", user.ID)
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) createUser(ctx context.Context, actor *entity.Principal, role entity.Role, req *dto.RegisterRequest) (*entity.User, error) {
	var specialty *string
	if role == entity.RoleDentist {
		s := strings.TrimSpace(req.Specialty)
		if s == "" {
			return nil, ErrSpecialtyRequired
		}
		specialty = &s
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     entity.NormalizeEmail(req.Email),
		Phone:     entity.NormalizePhone(req.Phone),
		Password:  string(hashedPassword),
		Role:      role,
		Specialty: specialty,
		IsActive:  true,
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := u.userRepo.Create(tx, user); err != nil {
			if isDuplicateKeyError(err, "email") {
				return ErrEmailAlreadyExists
			}
			if isDuplicateKeyError(err, "phone") {
				return ErrPhoneAlreadyExists
			}
			u.log.Warnf("Failed to create user: %+v", err)
			return err
		}

		var actorID *uint
		if actor != nil {
			actorID = &actor.UserID
		}
		return u.auditService.LogCreate(ctx, tx, actorID, entity.AuditActionUserRegister, "user", user.ID, converter.UserToResponse(user))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := u.userRepo.FindByEmail(u.tx.Reader(ctx), entity.NormalizeEmail(req.Email))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return u.issueToken(ctx, user)
}

func (u *authUsecase) Logout(ctx context.Context, actor *entity.Principal) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if err := u.sessionStore.Revoke(ctx, actor.UserID, actor.TokenID); err != nil {
		u.log.Warnf("Failed to revoke token %s: %+v", actor.TokenID, err)
		return err
	}
	return nil
}

func (u *authUsecase) GetProfile(ctx context.Context, actor *entity.Principal) (*dto.UserResponse, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	user, err := u.userRepo.FindByID(u.tx.Reader(ctx), actor.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

// Authenticate fails closed: the token must verify, still be in the session store,
// and belong to an existing active user.
func (u *authUsecase) Authenticate(ctx context.Context, token string) (*entity.Principal, error) {
	claims, err := u.jwtService.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	exists, err := u.sessionStore.Exists(ctx, userID, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to check token in session store: %+v", err)
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	user, err := u.userRepo.FindByID(u.tx.Reader(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to load user %d for token: %+v", userID, err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return &entity.Principal{
		UserID:  user.ID,
		Role:    user.Role,
		TokenID: claims.TokenID,
	}, nil
}

func (u *authUsecase) issueToken(ctx context.Context, user *entity.User) (*dto.AuthResponse, error) {
	token, tokenID, err := u.jwtService.GenerateToken(user.ID)
	if err != nil {
		u.log.Warnf("Failed to generate token: %+v", err)
		return nil, err
	}

	if err := u.sessionStore.Save(ctx, user.ID, tokenID, u.jwtService.GetExpiry()); err != nil {
		u.log.Warnf("Failed to store token in session store: %+v", err)
		return nil, err
	}

	return &dto.AuthResponse{
		User:      converter.UserToResponse(user),
		Token:     token,
		ExpiresIn: int64(u.jwtService.GetExpiry().Seconds()),
	}, nil
}
