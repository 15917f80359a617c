package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"who-dashboard/models"
	"who-dashboard/storage"
)

// ErrArchiveDisabled meldet, dass kein S3-Archiv konfiguriert ist.
var ErrArchiveDisabled = errors.New("archive is not configured")

// Workbook ist eine xlsx-Arbeitsmappe, in die Ergebnisse als Tabellenblätter geschrieben werden.
type Workbook struct {
	f      *excelize.File
	sheets int
}

// NewWorkbook erstellt eine leere Arbeitsmappe.
func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// AddSheet schreibt eine Kopfzeile und die Zeilen in ein neues Blatt.
func (w *Workbook) AddSheet(name string, header []string, rows [][]any) error {
	if w.sheets == 0 {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	w.sheets++

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := w.f.SetSheetRow(name, "A1", &head); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := w.f.SetSheetRow(name, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

// SheetNames gibt die Blätter in Reihenfolge zurück.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Bytes serialisiert die Arbeitsmappe.
func (w *Workbook) Bytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close gibt interne Ressourcen frei.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// DonorRows bildet die Spenderliste auf Tabellenzeilen ab.
func DonorRows(donors []models.Donor) ([]string, [][]any) {
	rows := make([][]any, 0, len(donors))
	for _, d := range donors {
		rows = append(rows, []any{d.ID, d.Name, d.Surname, d.DateOfBirth, string(d.Sex)})
	}
	return []string{"ID", "Name", "Surname", "Date of Birth", "Sex"}, rows
}

// TissueRows bildet eine Gewebeliste auf Tabellenzeilen ab.
func TissueRows(tissues []models.Tissue) ([]string, [][]any) {
	rows := make([][]any, 0, len(tissues))
	for _, t := range tissues {
		rows = append(rows, []any{t.ID, t.Name, t.Description, t.Density, string(t.IsVital)})
	}
	return []string{"ID", "Name", "Description", "Density", "Vital"}, rows
}

// DrugRows bildet eine Medikamentenliste auf Tabellenzeilen ab.
func DrugRows(drugs []models.Drug) ([]string, [][]any) {
	rows := make([][]any, 0, len(drugs))
	for _, d := range drugs {
		rows = append(rows, []any{d.ID, d.Name, d.Description, strings.Join(d.Allergies, ", ")})
	}
	return []string{"ID", "Name", "Description", "Allergies"}, rows
}

// WriteOperation schreibt das aktuelle Ergebnis einer Operation in die Arbeitsmappe.
func WriteOperation(w *Workbook, snap ConsoleSnapshot, id OperationID) error {
	switch id {
	case OP2:
		res := snap.Density.Result
		if res == nil {
			return fmt.Errorf("%w %s", ErrNoResult, id)
		}
		header, rows := TissueRows(res.Tissues)
		return w.AddSheet(fmt.Sprintf("OP2 below %g", res.Threshold), header, rows)
	case OP3:
		res := snap.Cure.Result
		if res == nil {
			return fmt.Errorf("%w %s", ErrNoResult, id)
		}
		header, rows := DrugRows(res.Drugs)
		if err := w.AddSheet(fmt.Sprintf("OP3 cure %d drugs", res.CureID), header, rows); err != nil {
			return err
		}
		allergies := make([][]any, 0, len(res.AllAllergies))
		for _, a := range res.AllAllergies {
			allergies = append(allergies, []any{a})
		}
		return w.AddSheet(fmt.Sprintf("OP3 cure %d allergies", res.CureID), []string{"Allergy"}, allergies)
	case OP4:
		res := snap.Disease.Result
		if res == nil {
			return fmt.Errorf("%w %s", ErrNoResult, id)
		}
		disease := DiseaseLabel(res)
		rows := make([][]any, 0, len(res.Donors))
		for _, d := range res.Donors {
			names := make([]string, 0, len(d.AffectedVitalTissues))
			for _, t := range d.AffectedVitalTissues {
				names = append(names, t.Name)
			}
			rows = append(rows, []any{disease, d.ID, d.Name, d.Surname, d.DateOfBirth, d.Sex, strings.Join(names, ", ")})
		}
		header := []string{"Disease", "Donor ID", "Name", "Surname", "Date of Birth", "Sex", "Affected Vital Tissues"}
		return w.AddSheet(fmt.Sprintf("OP4 disease %d", res.DiseaseID), header, rows)
	case OP5:
		res := snap.Researchers.Result
		if res == nil {
			return fmt.Errorf("%w %s", ErrNoResult, id)
		}
		var pubs, works [][]any
		for _, r := range res.Researchers {
			for _, p := range r.TopPublications {
				pubs = append(pubs, []any{r.ID, r.Name + " " + r.Surname, r.Email, r.Institution, p.DOI, p.Title, p.Journal, p.JournalQuality})
			}
			for _, fw := range r.SuggestedFutureWorks {
				works = append(works, []any{r.ID, r.Name + " " + r.Surname, fw.ID, fw.Description})
			}
		}
		err := w.AddSheet("OP5 "+res.JournalQuality+" publications",
			[]string{"Researcher ID", "Researcher", "Email", "Institution", "DOI", "Title", "Journal", "Quality"}, pubs)
		if err != nil {
			return err
		}
		return w.AddSheet("OP5 "+res.JournalQuality+" future works",
			[]string{"Researcher ID", "Researcher", "Future Work ID", "Description"}, works)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperation, id)
}

// DiseaseLabel ist der Krankheitsname oder, falls unbekannt, "ID {id}".
func DiseaseLabel(res *models.DonorsVitalDiseaseResponse) string {
	if res.DiseaseName != nil && *res.DiseaseName != "" {
		return *res.DiseaseName
	}
	return fmt.Sprintf("ID %d", res.DiseaseID)
}

// ExportOperation erzeugt die xlsx-Bytes für das Ergebnis einer Operation.
func ExportOperation(snap ConsoleSnapshot, id OperationID) ([]byte, error) {
	w := NewWorkbook()
	defer w.Close()
	if err := WriteOperation(w, snap, id); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// Archiver legt exportierte Arbeitsmappen in S3 ab.
type Archiver struct {
	Store   storage.ObjectStore
	Bucket  string
	BaseURL string
	Logger  *zap.Logger
	now     func() time.Time
}

// NewArchiver erstellt einen Archiver; store darf nil sein (Archiv deaktiviert).
func NewArchiver(store storage.ObjectStore, bucket, baseURL string, logger *zap.Logger) *Archiver {
	return &Archiver{Store: store, Bucket: bucket, BaseURL: baseURL, Logger: logger, now: time.Now}
}

// Enabled meldet, ob ein Ziel konfiguriert ist.
func (a *Archiver) Enabled() bool {
	return a != nil && a.Store != nil && a.Bucket != ""
}

// ArchiveOperation exportiert das Ergebnis einer Operation und lädt es hoch.
func (a *Archiver) ArchiveOperation(ctx context.Context, snap ConsoleSnapshot, id OperationID) (string, error) {
	if !a.Enabled() {
		return "", ErrArchiveDisabled
	}
	data, err := ExportOperation(snap, id)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("exports/%s/%s-%s.xlsx", a.now().UTC().Format("2006-01-02"), id, uuid.NewString())
	link, err := storage.UploadFile(ctx, a.Store, a.Bucket, key, storage.XLSXContentType, data, a.BaseURL)
	if err != nil {
		a.Logger.Error("S3-Upload fehlgeschlagen", zap.String("key", key), zap.Error(err))
		return "", err
	}
	a.Logger.Info("Export erfolgreich nach S3 hochgeladen", zap.String("operation", string(id)), zap.String("link", link))
	return link, nil
}
