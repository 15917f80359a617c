package models

// Sex ist das geschlossene Geschlechts-Enum eines Spenders.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
	SexOther  Sex = "X"
)

// Valid meldet, ob s einer der erlaubten Werte ist.
func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

// Donor repräsentiert einen Spender, wie ihn das WHO-Backend liefert.
type Donor struct {
	ID          int    `json:"donor_id"`
	Name        string `json:"donor_name"`
	Surname     string `json:"donor_surname"`
	DateOfBirth string `json:"donor_date_of_birth"`
	Sex         Sex    `json:"donor_sex"`
}

// DonorsResponse ist die Antwort von GET /api/donors.
type DonorsResponse struct {
	Total  int     `json:"total"`
	Donors []Donor `json:"donors"`
}
