package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/lifegarden/internal/app"
	"github.com/neomorfeo/lifegarden/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// Services groups the application services exposed over HTTP.
// Checklist may be nil or disabled, in which case /checklists is not registered.
type Services struct {
	Garden    *app.GardenService
	Watering  *app.WateringService
	Checklist *app.ChecklistService
}

// PlantResponse is the API representation of a plant.
type PlantResponse struct {
	ID               int64  `json:"id" doc:"Store-assigned identifier"`
	ArealID          string `json:"areal_id" doc:"Areal the plant belongs to"`
	Name             string `json:"name" doc:"Unique display name"`
	ImagePath        string `json:"image_path" doc:"Image key used by the frontend"`
	Position         string `json:"position" doc:"Position inside the areal"`
	Health           string `json:"health" doc:"healthy, okay or dead"`
	Size             string `json:"size" doc:"small, medium or big"`
	GrowthStage      int    `json:"growth_stage" doc:"1 to 5"`
	LastWatered      string `json:"last_watered,omitempty" doc:"Date of the last watering (YYYY-MM-DD)"`
	DaysWithoutWater int    `json:"days_without_water"`
	WaterStreak      int    `json:"water_streak"`
	TotalWaterCount  int    `json:"total_water_count"`
	Recovering       bool   `json:"recovering" doc:"Dead, but on a watering streak that will revive it"`
	CreatedAt        string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt        string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toPlantResponse(p domain.Plant) PlantResponse {
	resp := PlantResponse{
		ID:               p.ID,
		ArealID:          p.ArealID,
		Name:             p.Name,
		ImagePath:        p.ImagePath,
		Position:         p.Position,
		Health:           string(p.Health),
		Size:             string(p.Size),
		GrowthStage:      p.GrowthStage,
		DaysWithoutWater: p.DaysWithoutWater,
		WaterStreak:      p.WaterStreak,
		TotalWaterCount:  p.TotalWaterCount,
		Recovering:       p.Recovering(),
		CreatedAt:        p.CreatedAt.Format(timeFormat),
		UpdatedAt:        p.UpdatedAt.Format(timeFormat),
	}
	if p.Watered() {
		resp.LastWatered = p.LastWatered.String()
	}
	return resp
}

func toPlantResponses(plants []domain.Plant) []PlantResponse {
	resp := make([]PlantResponse, len(plants))
	for i, p := range plants {
		resp[i] = toPlantResponse(p)
	}
	return resp
}

// ArealResponse is the API representation of an areal.
type ArealResponse struct {
	ID            string `json:"id" doc:"Slug identifier"`
	Name          string `json:"name"`
	HorizontalPos string `json:"horizontal_pos"`
	VerticalPos   string `json:"vertical_pos"`
	Size          string `json:"size"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toArealResponse(a domain.Areal) ArealResponse {
	return ArealResponse{
		ID:            a.ID,
		Name:          a.Name,
		HorizontalPos: a.HorizontalPos,
		VerticalPos:   a.VerticalPos,
		Size:          a.Size,
		CreatedAt:     a.CreatedAt.Format(timeFormat),
		UpdatedAt:     a.UpdatedAt.Format(timeFormat),
	}
}

// ArealLayoutResponse is an areal with its plants.
type ArealLayoutResponse struct {
	Areal  ArealResponse   `json:"areal"`
	Plants []PlantResponse `json:"plants"`
}

// StatsResponse summarizes the garden.
type StatsResponse struct {
	Areals  int `json:"areals"`
	Plants  int `json:"plants"`
	Healthy int `json:"healthy"`
	Okay    int `json:"okay"`
	Dead    int `json:"dead"`
}

// --- Garden ---

type GardenOutput struct {
	Body []ArealLayoutResponse
}

type StatsOutput struct {
	Body StatsResponse
}

// --- Areals ---

type CreateArealInput struct {
	Body struct {
		ID            string `json:"id" minLength:"1" maxLength:"100" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"Slug identifier (lowercase, hyphens)"`
		Name          string `json:"name" minLength:"1" maxLength:"255"`
		HorizontalPos string `json:"horizontal_pos,omitempty"`
		VerticalPos   string `json:"vertical_pos,omitempty"`
		Size          string `json:"size,omitempty"`
	}
}

type ArealInput struct {
	ID string `path:"id" doc:"Areal ID"`
}

type ArealOutput struct {
	Body ArealResponse
}

type ListArealsOutput struct {
	Body []ArealResponse
}

// --- Plants ---

type CreatePlantInput struct {
	Body struct {
		ArealID   string `json:"areal_id" minLength:"1" doc:"Existing areal ID"`
		Name      string `json:"name" minLength:"1" maxLength:"255"`
		ImagePath string `json:"image_path,omitempty"`
		Position  string `json:"position,omitempty"`
		Health    string `json:"health,omitempty" enum:"healthy,okay,dead" doc:"Defaults to healthy"`
		Size      string `json:"size,omitempty" enum:"small,medium,big" doc:"Defaults to small"`
	}
}

type PlantInput struct {
	ID int64 `path:"id" doc:"Plant ID"`
}

type PlantOutput struct {
	Body PlantResponse
}

type ListPlantsInput struct {
	Areal      string `query:"areal" required:"false" doc:"Filter by areal ID"`
	Health     string `query:"health" required:"false" doc:"Filter by health"`
	NeedsWater bool   `query:"needs_water" required:"false" doc:"Only plants needing water, most neglected first"`
	Limit      int    `query:"limit" required:"false" default:"100" minimum:"0" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListPlantsOutput struct {
	Body []PlantResponse
}

type HealthOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Register adds all garden API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerGarden(api, svc.Garden)
	registerWatering(api, svc.Watering)
	if svc.Checklist != nil && svc.Checklist.Enabled() {
		registerChecklists(api, svc.Checklist)
	}

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness check",
		Tags:        []string{"System"},
	}, func(_ context.Context, _ *struct{}) (*HealthOutput, error) {
		out := &HealthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})
}

func registerGarden(api huma.API, svc *app.GardenService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-garden",
		Method:      http.MethodGet,
		Path:        "/api/v1/garden",
		Summary:     "Get every areal with its plants",
		Tags:        []string{"Garden"},
	}, func(ctx context.Context, _ *struct{}) (*GardenOutput, error) {
		layout, err := svc.Garden(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ArealLayoutResponse, len(layout))
		for i, entry := range layout {
			resp[i] = ArealLayoutResponse{
				Areal:  toArealResponse(entry.Areal),
				Plants: toPlantResponses(entry.Plants),
			}
		}
		return &GardenOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-garden-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/garden/stats",
		Summary:     "Count areals and plants by health",
		Tags:        []string{"Garden"},
	}, func(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
		stats, err := svc.Stats(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StatsOutput{Body: StatsResponse(stats)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-areal",
		Method:        http.MethodPost,
		Path:          "/api/v1/areals",
		Summary:       "Create or update an areal",
		Tags:          []string{"Areals"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateArealInput) (*ArealOutput, error) {
		areal, err := svc.CreateAreal(ctx, domain.Areal{
			ID:            input.Body.ID,
			Name:          input.Body.Name,
			HorizontalPos: input.Body.HorizontalPos,
			VerticalPos:   input.Body.VerticalPos,
			Size:          input.Body.Size,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ArealOutput{Body: toArealResponse(areal)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-areals",
		Method:      http.MethodGet,
		Path:        "/api/v1/areals",
		Summary:     "List areals",
		Tags:        []string{"Areals"},
	}, func(ctx context.Context, _ *struct{}) (*ListArealsOutput, error) {
		areals, err := svc.ListAreals(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ArealResponse, len(areals))
		for i, a := range areals {
			resp[i] = toArealResponse(a)
		}
		return &ListArealsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-areal",
		Method:      http.MethodGet,
		Path:        "/api/v1/areals/{id}",
		Summary:     "Get an areal by ID",
		Tags:        []string{"Areals"},
	}, func(ctx context.Context, input *ArealInput) (*ArealOutput, error) {
		areal, err := svc.GetAreal(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ArealOutput{Body: toArealResponse(areal)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-areal",
		Method:      http.MethodDelete,
		Path:        "/api/v1/areals/{id}",
		Summary:     "Delete an areal and its plants",
		Tags:        []string{"Areals"},
	}, func(ctx context.Context, input *ArealInput) (*struct{}, error) {
		if err := svc.DeleteAreal(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-plant",
		Method:        http.MethodPost,
		Path:          "/api/v1/plants",
		Summary:       "Create an unwatered plant",
		Tags:          []string{"Plants"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreatePlantInput) (*PlantOutput, error) {
		plant, err := svc.CreatePlant(ctx, app.NewPlantInput{
			ArealID:   input.Body.ArealID,
			Name:      input.Body.Name,
			ImagePath: input.Body.ImagePath,
			Position:  input.Body.Position,
			Health:    domain.Health(input.Body.Health),
			Size:      domain.Size(input.Body.Size),
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PlantOutput{Body: toPlantResponse(plant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-plants",
		Method:      http.MethodGet,
		Path:        "/api/v1/plants",
		Summary:     "List plants",
		Tags:        []string{"Plants"},
	}, func(ctx context.Context, input *ListPlantsInput) (*ListPlantsOutput, error) {
		filter := domain.PlantFilter{
			ArealID:    input.Areal,
			NeedsWater: input.NeedsWater,
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		if input.Health != "" {
			h := domain.Health(input.Health)
			if !h.Valid() {
				return nil, toHumaError(&domain.ValidationError{Field: "plant health", Value: input.Health})
			}
			filter.Health = &h
		}

		plants, err := svc.ListPlants(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListPlantsOutput{Body: toPlantResponses(plants)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-plant",
		Method:      http.MethodGet,
		Path:        "/api/v1/plants/{id}",
		Summary:     "Get a plant by ID",
		Tags:        []string{"Plants"},
	}, func(ctx context.Context, input *PlantInput) (*PlantOutput, error) {
		plant, err := svc.GetPlant(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PlantOutput{Body: toPlantResponse(plant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-plant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/plants/{id}",
		Summary:     "Delete a plant",
		Tags:        []string{"Plants"},
	}, func(ctx context.Context, input *PlantInput) (*struct{}, error) {
		if err := svc.DeletePlant(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) huma.StatusError {
	if errors.Is(err, domain.ErrPlantNotFound) {
		return huma.Error404NotFound("plant not found")
	}
	if errors.Is(err, domain.ErrArealNotFound) {
		return huma.Error404NotFound("areal not found")
	}
	if errors.Is(err, app.ErrNoChecklistReader) {
		return huma.Error503ServiceUnavailable(err.Error())
	}

	var readErr *app.ChecklistReadError
	if errors.As(err, &readErr) {
		return huma.Error502BadGateway("checklist could not be read")
	}

	var nameErr *domain.PlantNameConflictError
	if errors.As(err, &nameErr) {
		return huma.Error409Conflict(nameErr.Error())
	}

	var limitErr *domain.InvalidLimitError
	if errors.As(err, &limitErr) {
		return huma.Error422UnprocessableEntity(limitErr.Error())
	}

	var dateErr *domain.InvalidDateError
	if errors.As(err, &dateErr) {
		return huma.Error422UnprocessableEntity(dateErr.Error())
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
