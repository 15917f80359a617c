package models

// VitalFlag ist das Y/N-Flag für lebenswichtige Gewebe.
type VitalFlag string

const (
	VitalYes VitalFlag = "Y"
	VitalNo  VitalFlag = "N"
)

// IsVital meldet, ob das Flag "Y" ist.
func (v VitalFlag) IsVital() bool { return v == VitalYes }

// Tissue repräsentiert ein Organ bzw. Gewebe.
type Tissue struct {
	ID          int       `json:"tissue_id"`
	Name        string    `json:"tissue_name"`
	Description string    `json:"tissue_description"`
	Density     float64   `json:"tissue_density"`
	IsVital     VitalFlag `json:"tissue_is_vital"`
}

// TissuesResponse ist die Antwort von GET /api/tissues.
type TissuesResponse struct {
	Total   int      `json:"total"`
	Tissues []Tissue `json:"tissues"`
}
