package usecase

import (
	"context"

	"dental-clinic-api/internal/converter"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type AuditLogUsecase interface {
	List(ctx context.Context, actor *entity.Principal, action string, limit int) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	tx           repository.Transactor
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		tx:           tx,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) List(ctx context.Context, actor *entity.Principal, action string, limit int) (*dto.AuditLogListResponse, error) {
	if !actor.HasRole(entity.RoleAdmin) {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	logs, err := u.auditLogRepo.List(u.tx.Reader(ctx), action, limit)
	if err != nil {
		u.log.Warnf("Failed to list audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}
