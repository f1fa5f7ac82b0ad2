package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/lifegarden/internal/app"
	"github.com/neomorfeo/lifegarden/internal/domain"
)

// maxChecklistBytes bounds uploaded checklist photos.
const maxChecklistBytes = 10 << 20

// SkippedResponse is a requested plant that was not watered.
type SkippedResponse struct {
	Plant  string `json:"plant" doc:"Requested name or ID"`
	Reason string `json:"reason" enum:"limit_reached,over_capacity,not_found,already_watered"`
}

// WateringSummaryResponse is the outcome of a batch watering request.
// Capacity exhaustion and skipped plants are reported here, not as HTTP errors.
type WateringSummaryResponse struct {
	Date               string            `json:"date"`
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	Reason             string            `json:"reason,omitempty"`
	DailyLimit         int               `json:"daily_limit"`
	PlantsWateredToday int               `json:"plants_watered_today"`
	Updated            []PlantResponse   `json:"updated_plants"`
	Skipped            []SkippedResponse `json:"skipped_plants"`
	Decayed            int               `json:"decayed"`
}

func toSummaryResponse(s app.WateringSummary) WateringSummaryResponse {
	skipped := make([]SkippedResponse, len(s.Skipped))
	for i, sp := range s.Skipped {
		skipped[i] = SkippedResponse{Plant: sp.Ref.String(), Reason: string(sp.Reason)}
	}
	return WateringSummaryResponse{
		Date:               s.Date.String(),
		Success:            s.Success,
		Message:            s.Message,
		Reason:             string(s.Reason),
		DailyLimit:         s.DailyLimit,
		PlantsWateredToday: s.PlantsWateredToday,
		Updated:            toPlantResponses(s.Updated),
		Skipped:            skipped,
		Decayed:            s.Decayed,
	}
}

// PartialWateringError is the error body of a batch that stopped part way.
// Summary lists the plants that were watered before the failure.
type PartialWateringError struct {
	huma.ErrorModel
	Summary WateringSummaryResponse `json:"summary"`
}

// wateringError translates err like toHumaError, attaching the summary when
// the batch may have committed work before failing.
func wateringError(err error, summary app.WateringSummary) error {
	he := toHumaError(err)
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) && len(summary.Updated) == 0 && summary.Decayed == 0 {
		return he
	}

	status := he.GetStatus()
	return &PartialWateringError{
		ErrorModel: huma.ErrorModel{
			Title:  http.StatusText(status),
			Status: status,
			Detail: fmt.Sprintf("watering stopped after %d plants: %s", len(summary.Updated), he.Error()),
		},
		Summary: toSummaryResponse(summary),
	}
}

// WateringResultResponse is the outcome of watering one plant.
type WateringResultResponse struct {
	Date               string         `json:"date"`
	Success            bool           `json:"success"`
	Message            string         `json:"message"`
	Reason             string         `json:"reason,omitempty"`
	Plant              *PlantResponse `json:"plant,omitempty"`
	DailyLimit         int            `json:"daily_limit"`
	PlantsWateredToday int            `json:"plants_watered_today"`
}

// DailyStatsResponse summarizes one date's watering.
type DailyStatsResponse struct {
	Date          string   `json:"date"`
	Limit         int      `json:"daily_limit"`
	Watered       int      `json:"watered"`
	Remaining     int      `json:"remaining"`
	WateredPlants []string `json:"watered_plants"`
}

// WateringEventResponse is one entry of the watering history.
type WateringEventResponse struct {
	PlantID   int64  `json:"plant_id"`
	PlantName string `json:"plant_name"`
	Date      string `json:"date"`
	CreatedAt string `json:"created_at"`
}

// ChecklistItemResponse is one checkbox read from a checklist photo.
type ChecklistItemResponse struct {
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// --- Watering ---

type WaterPlantsInput struct {
	Body struct {
		Plants   []string `json:"plants,omitempty" doc:"Plant names, highest priority first"`
		PlantIDs []int64  `json:"plant_ids,omitempty" doc:"Plant IDs, watered after the named plants"`
		Date     string   `json:"date,omitempty" doc:"Watering date (YYYY-MM-DD), defaults to today"`
	}
}

type WaterPlantsOutput struct {
	Body WateringSummaryResponse
}

type WaterPlantInput struct {
	ID   int64  `path:"id" doc:"Plant ID"`
	Date string `query:"date" required:"false" doc:"Watering date (YYYY-MM-DD), defaults to today"`
}

type WaterPlantOutput struct {
	Body WateringResultResponse
}

type DateInput struct {
	Date string `query:"date" required:"false" doc:"Date (YYYY-MM-DD), defaults to today"`
}

type DailyStatsOutput struct {
	Body DailyStatsResponse
}

type HistoryInput struct {
	PlantID int64  `query:"plant_id" required:"false" doc:"Filter by plant"`
	Date    string `query:"date" required:"false" doc:"Filter by date (YYYY-MM-DD)"`
	Limit   int    `query:"limit" required:"false" default:"100" minimum:"0" doc:"Max results"`
}

type HistoryOutput struct {
	Body []WateringEventResponse
}

type LimitOutput struct {
	Body struct {
		Limit int `json:"limit"`
	}
}

type SetLimitInput struct {
	Body struct {
		Limit int `json:"limit" doc:"New daily watering limit"`
	}
}

// --- Checklists ---

type ChecklistInput struct {
	ContentType string `header:"Content-Type" doc:"Image MIME type"`
	Date        string `query:"date" required:"false" doc:"Watering date (YYYY-MM-DD), defaults to today"`
	RawBody     []byte `contentType:"image/*"`
}

type ChecklistOutput struct {
	Body struct {
		Items   []ChecklistItemResponse `json:"items"`
		Summary WateringSummaryResponse `json:"summary"`
	}
}

func registerWatering(api huma.API, svc *app.WateringService) {
	huma.Register(api, huma.Operation{
		OperationID: "water-plants",
		Method:      http.MethodPost,
		Path:        "/api/v1/watering",
		Summary:     "Water a batch of plants and decay the rest",
		Tags:        []string{"Watering"},
	}, func(ctx context.Context, input *WaterPlantsInput) (*WaterPlantsOutput, error) {
		date, err := optionalDate(input.Body.Date)
		if err != nil {
			return nil, toHumaError(err)
		}

		refs := make([]app.PlantRef, 0, len(input.Body.Plants)+len(input.Body.PlantIDs))
		for _, name := range input.Body.Plants {
			refs = append(refs, app.ByName(name))
		}
		for _, id := range input.Body.PlantIDs {
			refs = append(refs, app.ByID(id))
		}

		summary, err := svc.Water(ctx, refs, date)
		if err != nil {
			return nil, wateringError(err, summary)
		}
		return &WaterPlantsOutput{Body: toSummaryResponse(summary)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "water-plant",
		Method:      http.MethodPost,
		Path:        "/api/v1/plants/{id}/water",
		Summary:     "Water a single plant",
		Tags:        []string{"Watering"},
	}, func(ctx context.Context, input *WaterPlantInput) (*WaterPlantOutput, error) {
		date, err := optionalDate(input.Date)
		if err != nil {
			return nil, toHumaError(err)
		}

		result, err := svc.WaterOne(ctx, app.ByID(input.ID), date)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := WateringResultResponse{
			Date:               result.Date.String(),
			Success:            result.Success,
			Message:            result.Message,
			Reason:             string(result.Reason),
			DailyLimit:         result.DailyLimit,
			PlantsWateredToday: result.PlantsWateredToday,
		}
		if result.Success {
			p := toPlantResponse(result.Plant)
			resp.Plant = &p
		}
		return &WaterPlantOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-daily-watering",
		Method:      http.MethodGet,
		Path:        "/api/v1/watering/daily",
		Summary:     "Get the watering count and remaining capacity for a date",
		Tags:        []string{"Watering"},
	}, func(ctx context.Context, input *DateInput) (*DailyStatsOutput, error) {
		date, err := optionalDate(input.Date)
		if err != nil {
			return nil, toHumaError(err)
		}

		stats, err := svc.DailyStats(ctx, date)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DailyStatsOutput{Body: DailyStatsResponse{
			Date:          stats.Date.String(),
			Limit:         stats.Limit,
			Watered:       stats.Watered,
			Remaining:     stats.Remaining,
			WateredPlants: stats.WateredPlants,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-watering-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/watering/history",
		Summary:     "List watering events, newest first",
		Tags:        []string{"Watering"},
	}, func(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
		filter := domain.EventFilter{Limit: input.Limit}
		if input.PlantID != 0 {
			id := input.PlantID
			filter.PlantID = &id
		}
		date, err := optionalDate(input.Date)
		if err != nil {
			return nil, toHumaError(err)
		}
		filter.Date = date

		events, err := svc.History(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]WateringEventResponse, len(events))
		for i, e := range events {
			resp[i] = WateringEventResponse{
				PlantID:   e.PlantID,
				PlantName: e.PlantName,
				Date:      e.Date.String(),
				CreatedAt: e.CreatedAt.Format(timeFormat),
			}
		}
		return &HistoryOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-watering-limit",
		Method:      http.MethodGet,
		Path:        "/api/v1/watering/limit",
		Summary:     "Get the daily watering limit",
		Tags:        []string{"Watering"},
	}, func(ctx context.Context, _ *struct{}) (*LimitOutput, error) {
		limit, err := svc.Limit(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &LimitOutput{}
		out.Body.Limit = limit
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-watering-limit",
		Method:      http.MethodPut,
		Path:        "/api/v1/watering/limit",
		Summary:     "Change the daily watering limit",
		Tags:        []string{"Watering"},
	}, func(ctx context.Context, input *SetLimitInput) (*LimitOutput, error) {
		if err := svc.SetLimit(ctx, input.Body.Limit); err != nil {
			return nil, toHumaError(err)
		}
		out := &LimitOutput{}
		out.Body.Limit = input.Body.Limit
		return out, nil
	})
}

func registerChecklists(api huma.API, svc *app.ChecklistService) {
	huma.Register(api, huma.Operation{
		OperationID:  "water-checklist",
		Method:       http.MethodPost,
		Path:         "/api/v1/checklists",
		Summary:      "Water the plants ticked on a photographed checklist",
		Tags:         []string{"Watering"},
		MaxBodyBytes: maxChecklistBytes,
	}, func(ctx context.Context, input *ChecklistInput) (*ChecklistOutput, error) {
		if len(input.RawBody) == 0 {
			return nil, huma.Error400BadRequest("empty checklist image")
		}
		date, err := optionalDate(input.Date)
		if err != nil {
			return nil, toHumaError(err)
		}

		outcome, err := svc.WaterChecklist(ctx, input.RawBody, input.ContentType, date)
		if err != nil {
			return nil, wateringError(err, outcome.Summary)
		}

		out := &ChecklistOutput{}
		out.Body.Items = make([]ChecklistItemResponse, len(outcome.Items))
		for i, item := range outcome.Items {
			out.Body.Items[i] = ChecklistItemResponse{Label: item.Label, Checked: item.Checked}
		}
		out.Body.Summary = toSummaryResponse(outcome.Summary)
		return out, nil
	})
}

// optionalDate parses s, returning nil for an empty string.
func optionalDate(s string) (*domain.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
