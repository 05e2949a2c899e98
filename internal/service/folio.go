package service

import (
	"crypto/rand"
	"fmt"
	"time"
)

// GenerateFolio returns a human-readable appointment code: CITA-<unix millis>-<6 hex>.
func GenerateFolio(now time.Time) string {
	randomBytes := make([]byte, 3)
	rand.Read(randomBytes)
	return fmt.Sprintf("CITA-%d-%06X", now.UnixMilli(), randomBytes)
}
