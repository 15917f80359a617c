package models

// TissuesByDensityResponse ist das Ergebnis von OP2.
type TissuesByDensityResponse struct {
	Threshold float64  `json:"threshold"`
	Count     int      `json:"count"`
	Tissues   []Tissue `json:"tissues"`
}

// CureDetail ist das Ergebnis von OP3. AllAllergies wird so angezeigt, wie es das Backend liefert.
type CureDetail struct {
	CureID       int      `json:"cure_id"`
	Drugs        []Drug   `json:"drugs"`
	AllAllergies []string `json:"all_allergies"`
}

// AffectedTissue ist ein betroffenes lebenswichtiges Gewebe eines Spenders (OP4).
type AffectedTissue struct {
	ID      int    `json:"tissue_id"`
	Name    string `json:"tissue_name"`
	IsVital string `json:"tissue_is_vital"`
}

// DonorVitalDisease ist ein Spender samt betroffener lebenswichtiger Gewebe.
type DonorVitalDisease struct {
	ID                   int              `json:"donor_id"`
	Name                 string           `json:"donor_name"`
	Surname              string           `json:"donor_surname"`
	DateOfBirth          string           `json:"donor_date_of_birth"`
	Sex                  string           `json:"donor_sex"`
	AffectedVitalTissues []AffectedTissue `json:"affected_vital_tissues"`
}

// DonorsVitalDiseaseResponse ist das Ergebnis von OP4.
// DiseaseName ist nil, wenn das Backend die Krankheit nicht auflösen konnte.
type DonorsVitalDiseaseResponse struct {
	DiseaseID   int                 `json:"disease_id"`
	DiseaseName *string             `json:"disease_name"`
	Donors      []DonorVitalDisease `json:"donors"`
}

// JournalQuality ist der Qualitätsfilter von OP5.
type JournalQuality string

const (
	QualityTop    JournalQuality = "top"
	QualityMiddle JournalQuality = "middle"
	QualityLow    JournalQuality = "low"
)

// JournalQualities listet alle erlaubten Werte in Anzeige-Reihenfolge.
var JournalQualities = []JournalQuality{QualityTop, QualityMiddle, QualityLow}

// Publication ist eine Veröffentlichung; DOI ist innerhalb eines Forschers eindeutig.
type Publication struct {
	DOI            string `json:"publication_doi"`
	Title          string `json:"publication_title"`
	Journal        string `json:"publication_journal"`
	JournalQuality string `json:"publication_journal_quality"`
}

// FutureWork ist ein vorgeschlagenes zukünftiges Forschungsvorhaben.
type FutureWork struct {
	ID          int    `json:"future_work_id"`
	Description string `json:"future_work_description"`
}

// TopResearcher ist ein Forscher mit Publikationen und Vorschlägen (OP5).
type TopResearcher struct {
	ID                   int           `json:"researcher_id"`
	Name                 string        `json:"researcher_name"`
	Surname              string        `json:"researcher_surname"`
	Email                string        `json:"researcher_email"`
	Institution          string        `json:"researcher_institution"`
	TopPublications      []Publication `json:"top_publications"`
	SuggestedFutureWorks []FutureWork  `json:"suggested_future_works"`
}

// TopResearchersResponse ist das Ergebnis von OP5.
type TopResearchersResponse struct {
	JournalQuality string          `json:"journal_quality"`
	Researchers    []TopResearcher `json:"researchers"`
}

// HealthStatus ist die Antwort von GET / des Backends.
type HealthStatus struct {
	Status string `json:"status"`
}
