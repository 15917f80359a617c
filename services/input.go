package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"who-dashboard/models"
)

// ErrInvalidInput markiert Formulareingaben, die nicht in den erwarteten Typ passen.
var ErrInvalidInput = errors.New("invalid input")

// ParseDensity wandelt die Dichte-Eingabe von OP2 in einen float64.
// Es gibt keine Bereichsprüfung; nur nicht-numerische Eingaben werden abgelehnt.
func ParseDensity(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidInput, raw)
	}
	return v, nil
}

// ParseID wandelt die ID-Eingaben von OP3 und OP4 in einen int.
func ParseID(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidInput, raw)
	}
	return v, nil
}

// ParseQuality prüft die Auswahl von OP5 gegen das geschlossene Enum.
func ParseQuality(raw string) (models.JournalQuality, error) {
	q := models.JournalQuality(strings.TrimSpace(raw))
	for _, allowed := range models.JournalQualities {
		if q == allowed {
			return q, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not one of top, middle, low", ErrInvalidInput, raw)
}
