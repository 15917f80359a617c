package views

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"who-dashboard/models"
	"who-dashboard/services"
)

func render(t *testing.T, name string, data any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, name, data))
	return buf.String()
}

func loadedDonors(t *testing.T, donors []models.Donor, err error) *services.ListView[models.Donor] {
	t.Helper()
	fetch := func(context.Context) ([]models.Donor, error) { return donors, err }
	v := services.NewListView("donors", fetch, zap.NewNop(), services.NewMetrics(nil))
	v.Load(context.Background())
	return v
}

func TestNav_ActiveEntry(t *testing.T) {
	cases := map[string]string{
		"/":               "Dashboard",
		"/donors":         "Donors",
		"/donors/17":      "Donors",
		"/operations":     "Operations",
		"/drugstore":      "",
		"/unknown/prefix": "",
	}
	for path, want := range cases {
		var active []string
		for _, item := range Nav(path) {
			if item.Active {
				active = append(active, item.Label)
			}
		}
		if want == "" {
			assert.Empty(t, active, path)
		} else {
			assert.Equal(t, []string{want}, active, path)
		}
	}
}

func TestPlural(t *testing.T) {
	require.Equal(t, "1 donor", Plural(1, "donor"))
	require.Equal(t, "0 donors", Plural(0, "donor"))
	require.Equal(t, "3 tissues", Plural(3, "tissue"))
}

func TestNumber(t *testing.T) {
	require.Equal(t, "0.5", Number(0.5))
	require.Equal(t, "1", Number(1.0))
	require.Equal(t, "1.06", Number(1.06))
}

func TestTable_EmptyListRendersPlaceholder(t *testing.T) {
	out := render(t, "table", DonorTable(loadedDonors(t, []models.Donor{}, nil)))

	require.Equal(t, 1, strings.Count(out, "<tr class=\"placeholder\">"))
	require.Contains(t, out, `colspan="5"`)
	require.Contains(t, out, "No donors found.")
	require.NotContains(t, out, "data-id=")
	require.NotContains(t, out, "Total:")
}

func TestTable_RowsAndPluralizedTotal(t *testing.T) {
	one := render(t, "table", DonorTable(loadedDonors(t, []models.Donor{{ID: 4, Name: "Anna", Sex: models.SexFemale}}, nil)))
	require.Equal(t, 1, strings.Count(one, "data-id="))
	require.Contains(t, one, "Total: 1 donor<")

	two := render(t, "table", DonorTable(loadedDonors(t, []models.Donor{{ID: 4}, {ID: 2}}, nil)))
	require.Equal(t, 2, strings.Count(two, "data-id="))
	require.Contains(t, two, "Total: 2 donors")
	require.Less(t, strings.Index(two, `data-id="4"`), strings.Index(two, `data-id="2"`))
	require.NotContains(t, two, "No donors found.")
}

func TestTable_ErrorRendersBannerOnly(t *testing.T) {
	out := render(t, "table", DonorTable(loadedDonors(t, nil, errors.New("dial tcp: connection refused"))))

	require.Contains(t, out, "Failed to load donors. Please check if the backend is running.")
	require.NotContains(t, out, "<table>")
	require.NotContains(t, out, "connection refused")
}

func TestTable_LoadingState(t *testing.T) {
	v := services.NewListView("drugs", services.FetchFunc[models.Drug](nil), zap.NewNop(), services.NewMetrics(nil))
	v.Start()
	out := render(t, "table", DrugTable(v))
	require.Contains(t, out, "Loading drugs...")
}

func TestTissueTable_VitalityAndDensity(t *testing.T) {
	fetch := func(context.Context) ([]models.Tissue, error) {
		return []models.Tissue{
			{ID: 1, Name: "Heart", Density: 1.06, IsVital: models.VitalYes},
			{ID: 2, Name: "Fat", Density: 0.9, IsVital: models.VitalNo},
		}, nil
	}
	v := services.NewListView("tissues", fetch, zap.NewNop(), services.NewMetrics(nil))
	v.Load(context.Background())

	table := TissueTable(v)
	require.Equal(t, "1.06 g/cm³", table.Rows[0].Cells[3].Text)
	require.Equal(t, "Yes", table.Rows[0].Cells[4].Text)
	require.Equal(t, "No", table.Rows[1].Cells[4].Text)
	require.Equal(t, "Tissues", table.Heading)
}

func TestDrugTable_AllergyBadges(t *testing.T) {
	fetch := func(context.Context) ([]models.Drug, error) {
		return []models.Drug{
			{ID: 1, Name: "Aspirin", Allergies: []string{"a", "b", "c", "d"}},
			{ID: 2, Name: "Water"},
		}, nil
	}
	v := services.NewListView("drugs", fetch, zap.NewNop(), services.NewMetrics(nil))
	v.Load(context.Background())

	out := render(t, "table", DrugTable(v))
	require.Contains(t, out, "+2 more")
	require.Contains(t, out, "None")
	require.Equal(t, 2, strings.Count(out, "badge badge-warning"))
}

func densityPage(res *models.TissuesByDensityResponse) OperationsPage {
	snap := services.ConsoleSnapshot{Tab: services.OP2}
	snap.Density.Input = "0.5"
	snap.Density.Result = res
	return NewOperationsPage(snap, false)
}

func TestOperations_DensityHeader(t *testing.T) {
	page := densityPage(&models.TissuesByDensityResponse{Threshold: 0.5, Count: 2, Tissues: []models.Tissue{
		{ID: 1, Name: "Lung", Density: 0.3, IsVital: models.VitalYes},
		{ID: 2, Name: "Fat", Density: 0.45, IsVital: models.VitalNo},
	}})

	out := render(t, "operations", page)
	require.Contains(t, out, "Results: 2 tissues below 0.5 g/cm³")
	require.Contains(t, out, "<td>Y</td>")
	require.Contains(t, out, "<td>N</td>")
	require.Contains(t, out, "/operations/op2/export")
	require.NotContains(t, out, "Archive to S3")
}

func TestOperations_IdenticalResultsRenderIdentically(t *testing.T) {
	res := func() *models.TissuesByDensityResponse {
		return &models.TissuesByDensityResponse{Threshold: 1, Count: 1, Tissues: []models.Tissue{{ID: 7, Name: "Skin", Density: 0.8}}}
	}
	first := render(t, "op2", densityPage(res()).Density)
	second := render(t, "op2", densityPage(res()).Density)
	require.Equal(t, first, second)
}

func TestOperations_DiseaseLabel(t *testing.T) {
	snap := services.ConsoleSnapshot{Tab: services.OP4}
	snap.Disease.Result = &models.DonorsVitalDiseaseResponse{DiseaseID: 7, Donors: []models.DonorVitalDisease{{
		ID: 3, Name: "Anna", Surname: "Berg", DateOfBirth: "1980-01-01", Sex: "F",
		AffectedVitalTissues: []models.AffectedTissue{{ID: 1, Name: "Heart", IsVital: "Y"}},
	}}}
	out := render(t, "operations", NewOperationsPage(snap, false))
	require.Contains(t, out, "Disease: ID 7")
	require.Contains(t, out, "Found 1 donor<")
	require.Contains(t, out, "ID: 3 | DOB: 1980-01-01 | Sex: F")

	name := "Malaria"
	snap.Disease.Result.DiseaseName = &name
	out = render(t, "operations", NewOperationsPage(snap, false))
	require.Contains(t, out, "Disease: Malaria")
}

func TestOperations_ResearchersKeepEmptyHeadings(t *testing.T) {
	snap := services.ConsoleSnapshot{Tab: services.OP5}
	snap.Researchers.Input = "middle"
	snap.Researchers.Result = &models.TopResearchersResponse{JournalQuality: "middle", Researchers: []models.TopResearcher{
		{ID: 1, Name: "Ada", Surname: "Lovelace", Email: "ada@example.org", Institution: "WHO"},
	}}
	out := render(t, "operations", NewOperationsPage(snap, true))

	require.Contains(t, out, "1 researcher with middle quality publications")
	require.Contains(t, out, "Publications:")
	require.Contains(t, out, "Suggested Future Works:")
	require.Contains(t, out, `<option value="middle" selected>Middle</option>`)
	require.Contains(t, out, "Archive to S3")
}

func TestOperations_OnlyActiveTabIsRendered(t *testing.T) {
	snap := services.ConsoleSnapshot{Tab: services.OP3}
	snap.Density.Result = &models.TissuesByDensityResponse{Threshold: 0.5}
	out := render(t, "operations", NewOperationsPage(snap, false))

	require.Contains(t, out, "Get Cure Details with Drugs and Allergies")
	require.NotContains(t, out, "Get Tissues Below Density Threshold")
	require.Contains(t, out, `class="active" aria-selected="true">OP3: Cure Details`)
}

func TestOperations_LoadingDisablesButtonAndRefreshes(t *testing.T) {
	snap := services.ConsoleSnapshot{Tab: services.OP2}
	snap.Density.Loading = true
	page := NewOperationsPage(snap, false)
	require.Equal(t, 1, page.Refresh)

	out := render(t, "operations", page)
	require.Contains(t, out, `<button type="submit" disabled>Loading...</button>`)
	require.Contains(t, out, `http-equiv="refresh"`)
}

func TestOperations_InputErrorIsShown(t *testing.T) {
	snap := services.ConsoleSnapshot{Tab: services.OP3}
	snap.Cure.Input = "abc"
	snap.Cure.InputError = "invalid input: \"abc\" is not an integer"
	out := render(t, "operations", NewOperationsPage(snap, false))

	require.Contains(t, out, `class="input-error"`)
	require.Contains(t, out, "is not an integer")
}

func TestHome_Health(t *testing.T) {
	page := HomePage{Page: NewPage("Dashboard", "/"), Health: services.HealthReport{Checked: true, Up: false}}
	out := render(t, "home", page)
	require.Contains(t, out, "WHO Database")
	require.Contains(t, out, "Disease Monitoring System")
	require.Contains(t, out, "The backend is not reachable.")
	require.Contains(t, out, "Run history is not configured.")
}
