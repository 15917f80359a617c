package models

// Drug repräsentiert ein Medikament mit seinen bekannten Allergien.
type Drug struct {
	ID          int      `json:"drug_id"`
	Name        string   `json:"drug_name"`
	Description string   `json:"drug_description"`
	Allergies   []string `json:"drug_allergies"`
}

// DrugsResponse ist die Antwort von GET /api/drugs.
type DrugsResponse struct {
	Total int    `json:"total"`
	Drugs []Drug `json:"drugs"`
}
