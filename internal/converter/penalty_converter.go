package converter

import (
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
)

func PenaltyToResponse(p *entity.Penalty) *dto.PenaltyResponse {
	if p == nil {
		return nil
	}

	return &dto.PenaltyResponse{
		ID:            p.ID,
		PatientID:     p.PatientID,
		AppointmentID: p.AppointmentID,
		Reason:        string(p.Reason),
		Percentage:    p.Percentage,
		Amount:        p.Amount,
		Status:        string(p.Status),
		ExpiresAt:     p.ExpiresAt,
		CreatedAt:     p.CreatedAt,
	}
}

func PenaltiesToResponses(penalties []entity.Penalty) []dto.PenaltyResponse {
	responses := make([]dto.PenaltyResponse, len(penalties))
	for i := range penalties {
		responses[i] = *PenaltyToResponse(&penalties[i])
	}
	return responses
}
