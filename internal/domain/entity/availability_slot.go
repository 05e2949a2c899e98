package entity

import (
	"errors"
	"time"
)

const (
	SlotDateLayout  = "2006-01-02"
	SlotClockLayout = "15:04"
)

var ErrInvalidClock = errors.New("invalid time format, use HH:MM")

// AvailabilitySlot is a window on a calendar day in which a dentist accepts patients.
// Date and clock times are wall times in UTC, the same zone appointments are stored in.
type AvailabilitySlot struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DentistID uint      `gorm:"not null;index:idx_availability_dentist_date" json:"dentist_id"`
	Date      time.Time `gorm:"type:date;not null;index:idx_availability_dentist_date" json:"date"`
	StartTime string    `gorm:"type:time;not null" json:"start_time"`
	EndTime   string    `gorm:"type:time;not null" json:"end_time"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Dentist *User `gorm:"foreignKey:DentistID" json:"dentist,omitempty"`
}

func (AvailabilitySlot) TableName() string {
	return "availability_slots"
}

// Bounds returns the slot as the half-open instant range [start, end).
func (s *AvailabilitySlot) Bounds() (time.Time, time.Time, error) {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	day := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, time.UTC)
	return day.Add(start), day.Add(end), nil
}

// Overlaps reports whether two slots of the same dentist share any instant.
// Slots that only touch (one ends when the other starts) do not overlap.
func (s *AvailabilitySlot) Overlaps(other *AvailabilitySlot) bool {
	if s.DentistID != other.DentistID {
		return false
	}
	aStart, aEnd, err := s.Bounds()
	if err != nil {
		return false
	}
	bStart, bEnd, err := other.Bounds()
	if err != nil {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ParseClock reads "HH:MM" or the "HH:MM:SS" form Postgres returns for time columns
// and yields the offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	for _, layout := range []string{SlotClockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, ErrInvalidClock
}

// FormatClock renders a stored clock value as HH:MM.
func FormatClock(value string) string {
	if len(value) > len(SlotClockLayout) {
		return value[:len(SlotClockLayout)]
	}
	return value
}

// AvailabilityFilter narrows a slot listing. Dates are inclusive.
type AvailabilityFilter struct {
	DentistID uint
	From      *time.Time
	To        *time.Time
}
