package converter

import (
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
)

// AvailabilityToResponse converts a slot; occupied is computed by the caller from the appointment ledger.
func AvailabilityToResponse(slot *entity.AvailabilitySlot, occupied bool) *dto.AvailabilityResponse {
	if slot == nil {
		return nil
	}

	return &dto.AvailabilityResponse{
		ID:        slot.ID,
		DentistID: slot.DentistID,
		Date:      slot.Date.Format(entity.SlotDateLayout),
		StartTime: entity.FormatClock(slot.StartTime),
		EndTime:   entity.FormatClock(slot.EndTime),
		Occupied:  occupied,
		CreatedAt: slot.CreatedAt,
		UpdatedAt: slot.UpdatedAt,
	}
}
