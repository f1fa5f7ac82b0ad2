package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/neomorfeo/lifegarden/internal/adapter/fsm"
	adapter "github.com/neomorfeo/lifegarden/internal/adapter/http"
	"github.com/neomorfeo/lifegarden/internal/adapter/sqlite"
	"github.com/neomorfeo/lifegarden/internal/app"
	"github.com/neomorfeo/lifegarden/internal/domain"
)

var today = domain.MustParseDate("2024-05-10")

// noopPublisher is a no-op EventPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.Event, _ domain.Plant) error {
	return nil
}

type fixedClock struct{ day domain.Date }

func (c fixedClock) Today() domain.Date { return c.day }

// stubReader returns a fixed checklist and records the MIME type it was given.
type stubReader struct {
	items    []domain.ChecklistItem
	err      error
	mimeType string
}

func (r *stubReader) ReadChecklist(_ context.Context, _ []byte, mimeType string) ([]domain.ChecklistItem, error) {
	r.mimeType = mimeType
	return r.items, r.err
}

// failingStore fails to record watering for one plant.
type failingStore struct {
	*sqlite.Store
	failOn string
}

func (s *failingStore) RecordWatering(ctx context.Context, plant domain.Plant, date domain.Date) error {
	if plant.Name == s.failOn {
		return errors.New("disk full")
	}
	return s.Store.RecordWatering(ctx, plant, date)
}

func newSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// newTestServer creates a full-stack httptest.Server with SQLite in-memory.
// A nil reader leaves the checklist route unregistered.
func newTestServer(t *testing.T, reader domain.ChecklistReader) *httptest.Server {
	t.Helper()
	return newTestServerWithStore(t, newSQLiteStore(t), reader)
}

func newTestServerWithStore(t *testing.T, store domain.Store, reader domain.ChecklistReader) *httptest.Server {
	t.Helper()

	watering := app.NewWateringService(store, &noopPublisher{}, fsm.New(), fixedClock{day: today}, nil)
	svc := adapter.Services{
		Garden:    app.NewGardenService(store),
		Watering:  watering,
		Checklist: app.NewChecklistService(reader, watering),
	}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("lifegarden", "0.1.0"))
	adapter.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request with context (avoids noctx linter).
func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body: %s)", resp.StatusCode, want, body)
	}
}

func mustCreateAreal(t *testing.T, srv *httptest.Server, id string) adapter.ArealResponse {
	t.Helper()

	body := fmt.Sprintf(`{"id":%q,"name":%q,"horizontal_pos":"left","vertical_pos":"top","size":"small"}`, id, id)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/areals", body)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusCreated)
	return decode[adapter.ArealResponse](t, resp)
}

func mustCreatePlant(t *testing.T, srv *httptest.Server, arealID, name, health string) adapter.PlantResponse {
	t.Helper()

	body := fmt.Sprintf(`{"areal_id":%q,"name":%q,"health":%q}`, arealID, name, health)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/plants", body)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusCreated)
	return decode[adapter.PlantResponse](t, resp)
}

func water(t *testing.T, srv *httptest.Server, body string) adapter.WateringSummaryResponse {
	t.Helper()

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/watering", body)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)
	return decode[adapter.WateringSummaryResponse](t, resp)
}

// --- Areals ---

func TestCreateAreal(t *testing.T) {
	srv := newTestServer(t, nil)
	areal := mustCreateAreal(t, srv, "sport")

	if areal.ID != "sport" {
		t.Errorf("ID = %q, want %q", areal.ID, "sport")
	}
	if areal.HorizontalPos != "left" {
		t.Errorf("HorizontalPos = %q, want %q", areal.HorizontalPos, "left")
	}
	if areal.CreatedAt == "" {
		t.Error("CreatedAt should not be empty")
	}
}

func TestCreateAreal_InvalidID(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/areals", `{"id":"Not A Slug","name":"X"}`)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestGetAreal_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/areals/missing", "")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusNotFound)
}

func TestDeleteAreal_CascadesPlants(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")
	plant := mustCreatePlant(t, srv, "sport", "Running", "healthy")

	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/v1/areals/sport", "")
	resp.Body.Close()
	expectStatus(t, resp, http.StatusNoContent)

	resp = doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/v1/plants/%d", srv.URL, plant.ID), "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)
}

// --- Plants ---

func TestCreatePlant(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/plants", `{"areal_id":"sport","name":"Running"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	plant := decode[adapter.PlantResponse](t, resp)
	if plant.ID == 0 {
		t.Error("ID should be assigned")
	}
	if plant.Health != "healthy" {
		t.Errorf("Health = %q, want default %q", plant.Health, "healthy")
	}
	if plant.Size != "small" {
		t.Errorf("Size = %q, want default %q", plant.Size, "small")
	}
	if plant.GrowthStage != 1 {
		t.Errorf("GrowthStage = %d, want 1", plant.GrowthStage)
	}
	if plant.LastWatered != "" {
		t.Errorf("LastWatered = %q, want empty", plant.LastWatered)
	}
}

func TestCreatePlant_DuplicateName(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")
	mustCreatePlant(t, srv, "sport", "Running", "healthy")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/plants", `{"areal_id":"sport","name":"Running"}`)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusConflict)
}

func TestCreatePlant_UnknownAreal(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/plants", `{"areal_id":"nowhere","name":"Running"}`)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusNotFound)
}

func TestCreatePlant_InvalidHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/plants", `{"areal_id":"sport","name":"Running","health":"thriving"}`)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestListPlants_Filters(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")
	mustCreateAreal(t, srv, "work")
	mustCreatePlant(t, srv, "sport", "Running", "healthy")
	mustCreatePlant(t, srv, "sport", "Yoga", "dead")
	mustCreatePlant(t, srv, "work", "Focus", "okay")

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Focus", "Running", "Yoga"}},
		{"?areal=sport", []string{"Running", "Yoga"}},
		{"?health=okay", []string{"Focus"}},
		{"?needs_water=true", []string{"Yoga", "Focus"}},
		{"?limit=1&offset=1", []string{"Running"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/plants"+tt.query, "")
			defer resp.Body.Close()
			expectStatus(t, resp, http.StatusOK)

			plants := decode[[]adapter.PlantResponse](t, resp)
			got := make([]string, len(plants))
			for i, p := range plants {
				got[i] = p.Name
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListPlants_InvalidHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/plants?health=wilting", "")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

// --- Garden ---

func TestGardenAndStats(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")
	mustCreateAreal(t, srv, "work")
	mustCreatePlant(t, srv, "sport", "Running", "healthy")
	mustCreatePlant(t, srv, "sport", "Yoga", "dead")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/garden", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	layout := decode[[]adapter.ArealLayoutResponse](t, resp)
	if len(layout) != 2 {
		t.Fatalf("got %d areals, want 2", len(layout))
	}
	if len(layout[0].Plants) != 2 {
		t.Errorf("sport has %d plants, want 2", len(layout[0].Plants))
	}
	if layout[1].Plants == nil || len(layout[1].Plants) != 0 {
		t.Errorf("work plants = %v, want empty list", layout[1].Plants)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/garden/stats", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	stats := decode[adapter.StatsResponse](t, resp)
	want := adapter.StatsResponse{Areals: 2, Plants: 2, Healthy: 1, Dead: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

// --- Watering ---

func TestWater_Batch(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")
	mustCreatePlant(t, srv, "sport", "Running", "healthy")
	mustCreatePlant(t, srv, "sport", "Yoga", "okay")

	summary := water(t, srv, `{"plants":["Running","Ghost"]}`)

	if !summary.Success {
		t.Fatalf("Success = false, message %q", summary.Message)
	}
	if summary.Date != today.String() {
		t.Errorf("Date = %q, want %q", summary.Date, today)
	}
	if summary.Message != "Watered 1 plants" {
		t.Errorf("Message = %q", summary.Message)
	}
	if len(summary.Updated) != 1 || summary.Updated[0].Name != "Running" {
		t.Fatalf("Updated = %+v, want [Running]", summary.Updated)
	}
	if summary.Updated[0].LastWatered != today.String() || summary.Updated[0].WaterStreak != 1 {
		t.Errorf("Running = %+v", summary.Updated[0])
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0].Plant != "Ghost" || summary.Skipped[0].Reason != "not_found" {
		t.Errorf("Skipped = %+v, want Ghost not_found", summary.Skipped)
	}
	if summary.Decayed != 1 {
		t.Errorf("Decayed = %d, want 1", summary.Decayed)
	}
	if summary.PlantsWateredToday != 1 || summary.DailyLimit != domain.DefaultDailyLimit {
		t.Errorf("counts = %d/%d", summary.PlantsWateredToday, summary.DailyLimit)
	}
}

func TestWater_LimitReached(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")
	for i := range 5 {
		mustCreatePlant(t, srv, "sport", fmt.Sprintf("P%d", i), "healthy")
	}

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/watering/limit", `{"limit":2}`)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	first := water(t, srv, `{"plants":["P0","P1","P2"]}`)
	if len(first.Updated) != 2 {
		t.Fatalf("watered %d plants, want 2", len(first.Updated))
	}
	if len(first.Skipped) != 1 || first.Skipped[0].Reason != "over_capacity" {
		t.Errorf("Skipped = %+v, want P2 over_capacity", first.Skipped)
	}

	second := water(t, srv, `{"plants":["P3"]}`)
	if second.Success {
		t.Error("Success = true, want false once the limit is reached")
	}
	if second.Reason != "limit_reached" {
		t.Errorf("Reason = %q, want limit_reached", second.Reason)
	}
	if second.Message != "Daily watering limit (2) already reached" {
		t.Errorf("Message = %q", second.Message)
	}
}

func TestWater_InvalidDate(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/watering", `{"plants":["A"],"date":"10/05/2024"}`)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestWaterPlant(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")
	plant := mustCreatePlant(t, srv, "sport", "Running", "healthy")
	url := fmt.Sprintf("%s/api/v1/plants/%d/water", srv.URL, plant.ID)

	resp := doRequest(t, http.MethodPost, url, "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	result := decode[adapter.WateringResultResponse](t, resp)
	if !result.Success || result.Plant == nil {
		t.Fatalf("result = %+v, want success with plant", result)
	}
	if result.Message != "Successfully watered 'Running'" {
		t.Errorf("Message = %q", result.Message)
	}

	again := doRequest(t, http.MethodPost, url, "")
	defer again.Body.Close()
	expectStatus(t, again, http.StatusOK)

	result = decode[adapter.WateringResultResponse](t, again)
	if result.Success {
		t.Error("second watering on the same date should not succeed")
	}
	if result.Reason != "already_watered" {
		t.Errorf("Reason = %q, want already_watered", result.Reason)
	}
}

func TestWaterPlant_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/plants/999/water", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	result := decode[adapter.WateringResultResponse](t, resp)
	if result.Success || result.Reason != "not_found" {
		t.Errorf("result = %+v, want not_found", result)
	}
	if result.Message != "Plant 999 not found" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestDailyStatsAndHistory(t *testing.T) {
	srv := newTestServer(t, nil)
	mustCreateAreal(t, srv, "sport")
	mustCreatePlant(t, srv, "sport", "Running", "healthy")
	mustCreatePlant(t, srv, "sport", "Yoga", "healthy")
	water(t, srv, `{"plants":["Running"]}`)
	water(t, srv, `{"plants":["Yoga"],"date":"2024-05-09"}`)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/watering/daily", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	daily := decode[adapter.DailyStatsResponse](t, resp)
	if daily.Date != today.String() || daily.Watered != 1 || daily.Remaining != domain.DefaultDailyLimit-1 {
		t.Errorf("daily = %+v", daily)
	}
	if len(daily.WateredPlants) != 1 || daily.WateredPlants[0] != "Running" {
		t.Errorf("WateredPlants = %v, want [Running]", daily.WateredPlants)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/watering/history", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	history := decode[[]adapter.WateringEventResponse](t, resp)
	if len(history) != 2 {
		t.Fatalf("got %d events, want 2", len(history))
	}
	if history[0].PlantName != "Running" || history[1].Date != "2024-05-09" {
		t.Errorf("history = %+v, want newest first", history)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/watering/history?date=2024-05-09", "")
	defer resp.Body.Close()
	history = decode[[]adapter.WateringEventResponse](t, resp)
	if len(history) != 1 || history[0].PlantName != "Yoga" {
		t.Errorf("history = %+v, want [Yoga]", history)
	}
}

func TestWateringLimit(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/watering/limit", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	got := decode[struct {
		Limit int `json:"limit"`
	}](t, resp)
	if got.Limit != domain.DefaultDailyLimit {
		t.Errorf("limit = %d, want %d", got.Limit, domain.DefaultDailyLimit)
	}

	bad := doRequest(t, http.MethodPut, srv.URL+"/api/v1/watering/limit", `{"limit":0}`)
	defer bad.Body.Close()
	expectStatus(t, bad, http.StatusUnprocessableEntity)
}

func TestWaterPlants_StorageFailureReportsPartialSummary(t *testing.T) {
	srv := newTestServerWithStore(t, &failingStore{Store: newSQLiteStore(t), failOn: "Broken"}, nil)
	mustCreateAreal(t, srv, "sport")
	mustCreatePlant(t, srv, "sport", "Running", "healthy")
	mustCreatePlant(t, srv, "sport", "Broken", "healthy")
	mustCreatePlant(t, srv, "sport", "Yoga", "healthy")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/watering", `{"plants":["Running","Broken","Yoga"]}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusInternalServerError)

	got := decode[adapter.PartialWateringError](t, resp)
	if got.Status != http.StatusInternalServerError {
		t.Errorf("status field = %d, want 500", got.Status)
	}
	if got.Summary.Success {
		t.Error("partial summary should not report success")
	}
	if len(got.Summary.Updated) != 1 || got.Summary.Updated[0].Name != "Running" {
		t.Errorf("Updated = %+v, want [Running]", got.Summary.Updated)
	}
	if got.Summary.PlantsWateredToday != 1 {
		t.Errorf("PlantsWateredToday = %d, want 1", got.Summary.PlantsWateredToday)
	}
}

// --- Checklists ---

func TestChecklist_NotRegisteredWithoutReader(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/checklists", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want route to be absent", resp.StatusCode)
	}
}

func TestChecklist_WatersCheckedLabels(t *testing.T) {
	reader := &stubReader{items: []domain.ChecklistItem{
		{Label: "Running", Checked: true},
		{Label: "Yoga", Checked: false},
	}}
	srv := newTestServer(t, reader)
	mustCreateAreal(t, srv, "sport")
	mustCreatePlant(t, srv, "sport", "Running", "healthy")
	mustCreatePlant(t, srv, "sport", "Yoga", "healthy")

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		srv.URL+"/api/v1/checklists", bytes.NewReader([]byte("\x89PNG fake")))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /checklists failed: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	out := decode[struct {
		Items   []adapter.ChecklistItemResponse `json:"items"`
		Summary adapter.WateringSummaryResponse `json:"summary"`
	}](t, resp)

	if len(out.Items) != 2 {
		t.Errorf("got %d items, want 2", len(out.Items))
	}
	if len(out.Summary.Updated) != 1 || out.Summary.Updated[0].Name != "Running" {
		t.Errorf("Updated = %+v, want [Running]", out.Summary.Updated)
	}
	if reader.mimeType != "image/png" {
		t.Errorf("mime type = %q, want image/png", reader.mimeType)
	}
}

func TestChecklist_ReaderFailureIsBadGateway(t *testing.T) {
	srv := newTestServer(t, &stubReader{err: errors.New("upstream timeout")})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		srv.URL+"/api/v1/checklists", bytes.NewReader([]byte("\x89PNG fake")))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /checklists failed: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusBadGateway)
}

// --- System ---

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/health", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	got := decode[map[string]string](t, resp)
	if got["status"] != "ok" {
		t.Errorf("status = %q, want ok", got["status"])
	}
}
