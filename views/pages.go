package views

import (
	"fmt"

	"who-dashboard/models"
	"who-dashboard/services"
)

// Page sind die gemeinsamen Daten des Layouts.
type Page struct {
	Title   string
	Path    string
	Nav     []NavItem
	Refresh int // Sekunden bis zum automatischen Neuladen, 0 = aus
}

// NewPage erstellt die Layout-Daten für einen Pfad.
func NewPage(title, path string) Page {
	return Page{Title: title, Path: path, Nav: Nav(path)}
}

// HomePage ist die Startseite mit Backend-Status und letzten Operationen.
type HomePage struct {
	Page
	Health         services.HealthReport
	HistoryEnabled bool
	Runs           []models.OperationRun
}

// ListPage ist die Hülle einer Listenansicht; die Tabelle wird nach dem Laden nachgeholt.
type ListPage struct {
	Page
	Heading  string
	Subtitle string
	Resource string
	TableURL string
}

// ListPages beschreibt die drei Listenansichten.
var ListPages = map[string]ListPage{
	"donors":  {Heading: "Donors", Subtitle: "Manage donor information", Resource: "donors", TableURL: "/donors/table"},
	"tissues": {Heading: "Tissues", Subtitle: "Manage tissue and organ information (Operation 1)", Resource: "tissues", TableURL: "/tissues/table"},
	"drugs":   {Heading: "Drugs", Subtitle: "Manage pharmaceutical information", Resource: "drugs", TableURL: "/drugs/table"},
}

// Cell ist eine Tabellenzelle. Ist Badge gesetzt, wird Text als Badge mit dieser Klasse gerendert.
type Cell struct {
	Text   string
	Badge  string
	Badges []string
	More   int
	Empty  string
}

// Row ist eine Tabellenzeile, identifiziert über die ID des Datensatzes.
type Row struct {
	ID    int
	Cells []Cell
}

// TableView ist das Fragment einer Listenansicht in einem der Zustände Loading, Error oder Success.
type TableView struct {
	Heading  string
	Subtitle string
	Resource string
	Noun     string
	Columns  []string
	State    string
	Error    string
	Rows     []Row
}

// Total ist die Zusammenfassung unter der Tabelle, z.B. "Total: 2 donors".
func (t TableView) Total() string {
	return "Total: " + Plural(len(t.Rows), t.Noun)
}

func newTable[T any](v *services.ListView[T], noun string, columns []string, row func(T) Row) TableView {
	shell := ListPages[v.Resource()]
	t := TableView{
		Heading:  shell.Heading,
		Subtitle: shell.Subtitle,
		Resource: v.Resource(),
		Noun:     noun,
		Columns:  columns,
		State:    v.State().String(),
		Error:    v.ErrorMessage(),
	}
	if v.State() == services.ListSuccess {
		t.Rows = make([]Row, 0, len(v.Items()))
		for _, item := range v.Items() {
			t.Rows = append(t.Rows, row(item))
		}
	}
	return t
}

// DonorTable rendert die Spenderliste.
func DonorTable(v *services.ListView[models.Donor]) TableView {
	return newTable(v, "donor", []string{"ID", "Name", "Surname", "Date of Birth", "Sex"}, func(d models.Donor) Row {
		return Row{ID: d.ID, Cells: []Cell{
			{Text: fmt.Sprint(d.ID)},
			{Text: d.Name},
			{Text: d.Surname},
			{Text: d.DateOfBirth},
			{Text: string(d.Sex), Badge: "badge-primary"},
		}}
	})
}

// TissueTable rendert die Gewebeliste mit Yes/No statt Y/N.
func TissueTable(v *services.ListView[models.Tissue]) TableView {
	return newTable(v, "tissue", []string{"ID", "Name", "Description", "Density", "Vital"}, func(t models.Tissue) Row {
		vital, badge := "No", "badge-muted"
		if t.IsVital.IsVital() {
			vital, badge = "Yes", "badge-danger"
		}
		return Row{ID: t.ID, Cells: []Cell{
			{Text: fmt.Sprint(t.ID)},
			{Text: t.Name},
			{Text: t.Description},
			{Text: Number(t.Density) + " g/cm³"},
			{Text: vital, Badge: badge},
		}}
	})
}

// DrugTable rendert die Medikamentenliste; von den Allergien werden höchstens zwei gezeigt.
func DrugTable(v *services.ListView[models.Drug]) TableView {
	return newTable(v, "drug", []string{"ID", "Name", "Description", "Allergies"}, func(d models.Drug) Row {
		allergies := Cell{Badges: d.Allergies, Empty: "None"}
		if len(d.Allergies) > 2 {
			allergies.Badges = d.Allergies[:2]
			allergies.More = len(d.Allergies) - 2
		}
		return Row{ID: d.ID, Cells: []Cell{
			{Text: fmt.Sprint(d.ID)},
			{Text: d.Name},
			{Text: d.Description},
			allergies,
		}}
	})
}

// Tab ist ein Reiter der Operationskonsole.
type Tab struct {
	ID     string
	Label  string
	Href   string
	Active bool
}

var tabLabels = map[services.OperationID]string{
	services.OP2: "OP2: Tissues by Density",
	services.OP3: "OP3: Cure Details",
	services.OP4: "OP4: Donors with Disease",
	services.OP5: "OP5: Top Researchers",
}

// Tabs liefert die vier Reiter, active ist hervorgehoben.
func Tabs(active services.OperationID) []Tab {
	tabs := make([]Tab, 0, len(services.Operations))
	for _, id := range services.Operations {
		tabs = append(tabs, Tab{
			ID:     string(id),
			Label:  tabLabels[id],
			Href:   "/operations?tab=" + string(id),
			Active: id == active,
		})
	}
	return tabs
}

// OperationsPage ist die Operationskonsole einer Sitzung. Nur der aktive Reiter wird gerendert.
type OperationsPage struct {
	Page
	Tabs           []Tab
	Active         string
	Density        DensityPanel
	Cure           CurePanel
	Disease        DiseasePanel
	Researchers    ResearchersPanel
	ArchiveEnabled bool
	Archived       string
}

// DensityPanel ist Formular und Ergebnis von OP2.
type DensityPanel struct {
	services.SlotSnapshot[models.TissuesByDensityResponse]
}

// HasResult meldet, ob bereits ein Ergebnis vorliegt.
func (p DensityPanel) HasResult() bool { return p.Result != nil }

// Header ist z.B. "Results: 2 tissues below 0.5 g/cm³".
func (p DensityPanel) Header() string {
	return fmt.Sprintf("Results: %s below %s g/cm³", Plural(p.Result.Count, "tissue"), Number(p.Result.Threshold))
}

// CurePanel ist Formular und Ergebnis von OP3.
type CurePanel struct {
	services.SlotSnapshot[models.CureDetail]
}

func (p CurePanel) HasResult() bool { return p.Result != nil }

// DiseasePanel ist Formular und Ergebnis von OP4.
type DiseasePanel struct {
	services.SlotSnapshot[models.DonorsVitalDiseaseResponse]
}

func (p DiseasePanel) HasResult() bool { return p.Result != nil }

// Disease ist der Krankheitsname oder "ID {id}".
func (p DiseasePanel) Disease() string {
	return services.DiseaseLabel(p.Result)
}

// Found ist z.B. "Found 1 donor".
func (p DiseasePanel) Found() string {
	return "Found " + Plural(len(p.Result.Donors), "donor")
}

// ResearchersPanel ist Formular und Ergebnis von OP5.
type ResearchersPanel struct {
	services.SlotSnapshot[models.TopResearchersResponse]
	Qualities []models.JournalQuality
}

func (p ResearchersPanel) HasResult() bool { return p.Result != nil }

// Header ist z.B. "2 researchers with top quality publications".
func (p ResearchersPanel) Header() string {
	return fmt.Sprintf("%s with %s quality publications", Plural(len(p.Result.Researchers), "researcher"), p.Result.JournalQuality)
}

// NewOperationsPage baut die Seite aus dem Zustand einer Konsole.
func NewOperationsPage(snap services.ConsoleSnapshot, archiveEnabled bool) OperationsPage {
	page := OperationsPage{
		Page:           NewPage("Operations", "/operations"),
		Tabs:           Tabs(snap.Tab),
		Active:         string(snap.Tab),
		Density:        DensityPanel{snap.Density},
		Cure:           CurePanel{snap.Cure},
		Disease:        DiseasePanel{snap.Disease},
		Researchers:    ResearchersPanel{SlotSnapshot: snap.Researchers, Qualities: models.JournalQualities},
		ArchiveEnabled: archiveEnabled,
	}
	if snap.Loading() {
		page.Refresh = 1
	}
	return page
}
