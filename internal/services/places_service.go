package services

import (
	"context"
	"io"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/wanderlist/backend/internal/models"
)

// PlacesService is a read-only pass-through to an external places API,
// remapping responses into the application's summary/detail shapes. Failures
// are never retried here.
type PlacesService interface {
	Search(ctx context.Context, query string, lat, lng float64) ([]models.PlaceSummary, error)
	Details(ctx context.Context, placeID string) (*models.PlaceDetail, error)
	Photo(ctx context.Context, photoRef string, maxWidth int) (io.ReadCloser, string, error)
}

const searchRadiusMeters = 3000

type GooglePlacesService struct {
	client *maps.Client
	logger *zap.SugaredLogger
}

func NewGooglePlacesService(apiKey string, logger *zap.SugaredLogger) (*GooglePlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GooglePlacesService{client: client, logger: logger}, nil
}

func (s *GooglePlacesService) Search(ctx context.Context, query string, lat, lng float64) ([]models.PlaceSummary, error) {
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Location: &maps.LatLng{Lat: lat, Lng: lng},
		Radius:   searchRadiusMeters,
	})
	if err != nil {
		return nil, err
	}

	results := make([]models.PlaceSummary, 0, len(resp.Results))
	for _, r := range resp.Results {
		summary := models.PlaceSummary{
			Name:    r.Name,
			Address: r.FormattedAddress,
			PlaceID: r.PlaceID,
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
			Rating:  float64(r.Rating),
		}
		if len(r.Photos) > 0 {
			summary.PhotoRef = r.Photos[0].PhotoReference
		}
		results = append(results, summary)
	}
	return results, nil
}

func (s *GooglePlacesService) Details(ctx context.Context, placeID string) (*models.PlaceDetail, error) {
	r, err := s.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskGeometry,
			maps.PlaceDetailsFieldMaskRatings,
			maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
			maps.PlaceDetailsFieldMaskWebsite,
			maps.PlaceDetailsFieldMaskOpeningHours,
			maps.PlaceDetailsFieldMaskPhotos,
		},
	})
	if err != nil {
		return nil, err
	}

	detail := &models.PlaceDetail{
		Name:    r.Name,
		Address: r.FormattedAddress,
		Phone:   r.FormattedPhoneNumber,
		Website: r.Website,
		Rating:  float64(r.Rating),
		Lat:     r.Geometry.Location.Lat,
		Lng:     r.Geometry.Location.Lng,
	}
	if r.OpeningHours != nil {
		detail.Hours = r.OpeningHours.WeekdayText
	}
	if len(r.Photos) > 0 {
		detail.PhotoRef = r.Photos[0].PhotoReference
	}
	return detail, nil
}

// Photo streams a place photo; the caller owns the returned reader. Keeps
// the API key server-side instead of exposing photo URLs to the browser.
func (s *GooglePlacesService) Photo(ctx context.Context, photoRef string, maxWidth int) (io.ReadCloser, string, error) {
	resp, err := s.client.PlacePhoto(ctx, &maps.PlacePhotoRequest{
		PhotoReference: photoRef,
		MaxWidth:       uint(maxWidth),
	})
	if err != nil {
		return nil, "", err
	}
	return resp.Data, resp.ContentType, nil
}

var _ PlacesService = (*GooglePlacesService)(nil)
