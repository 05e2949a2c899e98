package converter

import (
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
)

func MedicalRecordToResponse(record *entity.MedicalRecord) *dto.MedicalRecordResponse {
	if record == nil {
		return nil
	}

	images := []string(record.XrayImages)
	if images == nil {
		images = []string{}
	}

	return &dto.MedicalRecordResponse{
		ID:            record.ID,
		PatientID:     record.PatientID,
		DentistID:     record.DentistID,
		AppointmentID: record.AppointmentID,
		Diagnosis:     record.Diagnosis,
		Treatment:     record.Treatment,
		Prescriptions: record.Prescriptions,
		Notes:         record.Notes,
		XrayImages:    images,
		Dentist:       UserToResponse(record.Dentist),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func MedicalRecordsToResponses(records []entity.MedicalRecord) []dto.MedicalRecordResponse {
	responses := make([]dto.MedicalRecordResponse, len(records))
	for i := range records {
		responses[i] = *MedicalRecordToResponse(&records[i])
	}
	return responses
}
