package converter

import (
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(apt *entity.Appointment) *dto.AppointmentResponse {
	if apt == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:              apt.ID,
		Folio:           apt.Folio,
		PatientID:       apt.PatientID,
		DentistID:       apt.DentistID,
		ScheduledAt:     apt.ScheduledAt.UTC(),
		DurationMinutes: apt.DurationMinutes,
		Status:          string(apt.Status),
		Type:            string(apt.Type),
		Notes:           apt.Notes,
		Patient:         UserToResponse(apt.Patient),
		Dentist:         UserToResponse(apt.Dentist),
		CreatedAt:       apt.CreatedAt,
		UpdatedAt:       apt.UpdatedAt,
	}
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
