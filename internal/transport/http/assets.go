package http

import (
	"context"
	"net/http"

	"github.com/cimillas/asset-reservations/internal/app"
	"github.com/cimillas/asset-reservations/internal/domain"
)

// AssetCatalog is the minimal interface needed for the asset endpoints.
type AssetCatalog interface {
	ListAssets(ctx context.Context, filter domain.AssetFilter) ([]domain.AssetAvailability, error)
	GetAsset(ctx context.Context, assetID string) (domain.AssetAvailability, error)
	CreateAsset(ctx context.Context, p domain.Principal, in app.CreateAssetInput) (domain.Asset, error)
}

type AvailabilityReader interface {
	Availability(ctx context.Context, assetID string, w *domain.Window) (int, error)
}

// HandleListAssets serves GET /assets with optional location, type and
// search query filters.
func HandleListAssets(svc AssetCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assets, err := svc.ListAssets(r.Context(), domain.AssetFilter{
			Location: q.Get("location"),
			Type:     q.Get("type"),
			Search:   q.Get("search"),
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp := make([]assetResponse, 0, len(assets))
		for _, a := range assets {
			resp = append(resp, toAssetAvailabilityResponse(a))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleGetAsset serves GET /assets/{id}.
func HandleGetAsset(svc AssetCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetAsset(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAssetAvailabilityResponse(a))
	}
}

type availabilityResponse struct {
	AssetID   string  `json:"asset_id"`
	Available int     `json:"available"`
	Start     *string `json:"start,omitempty"`
	End       *string `json:"end,omitempty"`
}

// HandleAvailability serves GET /assets/{id}/availability. With both start
// and end it answers for that window; otherwise for the current instant.
func HandleAvailability(svc AvailabilityReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID := r.PathValue("id")
		q := r.URL.Query()
		start, end := q.Get("start"), q.Get("end")

		var window *domain.Window
		if start != "" || end != "" {
			parsed, err := domain.ParseWindow(start, end)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			window = &parsed
		}

		free, err := svc.Availability(r.Context(), assetID, window)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp := availabilityResponse{AssetID: assetID, Available: free}
		if window != nil {
			resp.Start, resp.End = &start, &end
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type createAssetRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Type          string `json:"type" validate:"max=100"`
	Location      string `json:"location" validate:"max=200"`
	TotalQuantity int    `json:"total_quantity" validate:"min=0"`
}

// HandleCreateAsset serves POST /admin/assets.
func HandleCreateAsset(svc AssetCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req createAssetRequest
		if !decodeBody(w, r, &req) {
			return
		}

		a, err := svc.CreateAsset(r.Context(), p, app.CreateAssetInput{
			Name:          req.Name,
			Type:          req.Type,
			Location:      req.Location,
			TotalQuantity: req.TotalQuantity,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		free := a.TotalQuantity
		writeJSON(w, http.StatusCreated, toAssetResponse(a, &free))
	}
}
