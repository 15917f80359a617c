package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"who-dashboard/models"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memoryStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryStore) ListObjectsV2(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, nil
}

func (m *memoryStore) DeleteObject(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestExportOperation_Density(t *testing.T) {
	snap := ConsoleSnapshot{}
	snap.Density.Result = &models.TissuesByDensityResponse{Threshold: 0.5, Count: 1, Tissues: []models.Tissue{
		{ID: 3, Name: "Fat", Description: "Adipose", Density: 0.25, IsVital: models.VitalNo},
	}}

	data, err := ExportOperation(snap, OP2)
	require.NoError(t, err)

	rows := readRows(t, data, "OP2 below 0.5")
	require.Equal(t, []string{"ID", "Name", "Description", "Density", "Vital"}, rows[0])
	require.Equal(t, []string{"3", "Fat", "Adipose", "0.25", "N"}, rows[1])
}

func TestExportOperation_CureHasTwoSheets(t *testing.T) {
	snap := ConsoleSnapshot{}
	snap.Cure.Result = &models.CureDetail{
		CureID:       4,
		Drugs:        []models.Drug{{ID: 1, Name: "Aspirin", Description: "Pain", Allergies: []string{"salicylate"}}},
		AllAllergies: []string{"salicylate", "latex"},
	}

	w := NewWorkbook()
	defer w.Close()
	require.NoError(t, WriteOperation(w, snap, OP3))
	require.Equal(t, []string{"OP3 cure 4 drugs", "OP3 cure 4 allergies"}, w.SheetNames())

	data, err := w.Bytes()
	require.NoError(t, err)
	rows := readRows(t, data, "OP3 cure 4 allergies")
	require.Equal(t, [][]string{{"Allergy"}, {"salicylate"}, {"latex"}}, rows)
}

func TestExportOperation_DiseaseLabel(t *testing.T) {
	name := "Malaria"
	require.Equal(t, "Malaria", DiseaseLabel(&models.DonorsVitalDiseaseResponse{DiseaseID: 7, DiseaseName: &name}))
	require.Equal(t, "ID 7", DiseaseLabel(&models.DonorsVitalDiseaseResponse{DiseaseID: 7}))

	snap := ConsoleSnapshot{}
	snap.Disease.Result = &models.DonorsVitalDiseaseResponse{DiseaseID: 7, Donors: []models.DonorVitalDisease{{
		ID: 1, Name: "Anna", Surname: "Berg", DateOfBirth: "1980-01-01", Sex: "F",
		AffectedVitalTissues: []models.AffectedTissue{{ID: 1, Name: "Heart", IsVital: "Y"}, {ID: 2, Name: "Lung", IsVital: "Y"}},
	}}}
	data, err := ExportOperation(snap, OP4)
	require.NoError(t, err)
	rows := readRows(t, data, "OP4 disease 7")
	require.Equal(t, "ID 7", rows[1][0])
	require.Equal(t, "Heart, Lung", rows[1][6])
}

func TestExportOperation_ResearchersWithEmptyLists(t *testing.T) {
	snap := ConsoleSnapshot{}
	snap.Researchers.Result = &models.TopResearchersResponse{JournalQuality: "middle", Researchers: []models.TopResearcher{{ID: 1, Name: "Ada", Surname: "L"}}}

	w := NewWorkbook()
	defer w.Close()
	require.NoError(t, WriteOperation(w, snap, OP5))
	require.Equal(t, []string{"OP5 middle publications", "OP5 middle future works"}, w.SheetNames())
}

func TestExportOperation_NoResult(t *testing.T) {
	for _, id := range Operations {
		_, err := ExportOperation(ConsoleSnapshot{}, id)
		require.ErrorIs(t, err, ErrNoResult, string(id))
	}
	_, err := ExportOperation(ConsoleSnapshot{}, "op9")
	require.ErrorIs(t, err, ErrUnknownOperation)
}

func TestArchiver_UploadsWorkbook(t *testing.T) {
	store := &memoryStore{}
	a := NewArchiver(store, "who-exports", "https://s3.example.org", zap.NewNop())
	a.now = func() time.Time { return time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC) }

	snap := ConsoleSnapshot{}
	snap.Cure.Result = &models.CureDetail{CureID: 1}

	link, err := a.ArchiveOperation(context.Background(), snap, OP3)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://s3.example.org/who-exports/exports/2024-05-01/op3-"), link)
	require.True(t, strings.HasSuffix(link, ".xlsx"))
	require.Len(t, store.objects, 1)
}

func TestArchiver_Disabled(t *testing.T) {
	a := NewArchiver(nil, "", "", zap.NewNop())
	require.False(t, a.Enabled())

	_, err := a.ArchiveOperation(context.Background(), ConsoleSnapshot{}, OP2)
	require.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestArchiver_UploadError(t *testing.T) {
	a := NewArchiver(&memoryStore{err: errors.New("access denied")}, "who-exports", "", zap.NewNop())
	snap := ConsoleSnapshot{}
	snap.Density.Result = &models.TissuesByDensityResponse{Threshold: 1}

	_, err := a.ArchiveOperation(context.Background(), snap, OP2)
	require.ErrorContains(t, err, "access denied")
}
