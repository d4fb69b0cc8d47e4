// Package places proxies the maps provider: nearby facility search, photo
// redirects and best-effort travel-time enrichment.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zhixinliu/medichat/backend/internal/config"
	"github.com/zhixinliu/medichat/backend/internal/geo"
	"github.com/zhixinliu/medichat/backend/internal/model/place"
)

// maxResults caps the facility list returned to the client.
const maxResults = 10

// DefaultRadius is the search radius in meters when the client sends none.
const DefaultRadius = 5000

// ErrUnreachable marks transport-level failures against the maps provider.
var ErrUnreachable = errors.New("places provider unreachable")

// ProviderError relays an upstream maps API failure.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("places provider returned %d: %s", e.StatusCode, e.Message)
}

// SearchParams describes one facility search.
type SearchParams struct {
	Lat    float64
	Lng    float64
	Type   string
	Radius int
}

// Service is the places proxy. Stateless per request.
type Service struct {
	cfg        config.PlacesConfig
	httpClient *http.Client
}

// NewService builds the proxy against the configured maps provider.
func NewService(cfg config.PlacesConfig) *Service {
	return &Service{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
		OpeningHours     *struct {
			OpenNow *bool `json:"open_now"`
		} `json:"opening_hours"`
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
			Width          int    `json:"width"`
			Height         int    `json:"height"`
		} `json:"photos"`
	} `json:"results"`
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Search returns up to maxResults facilities sorted by ascending straight-line
// distance from the query point, annotated with distance and, best-effort,
// walking and driving durations.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]place.Place, error) {
	radius := params.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}

	query := url.Values{}
	query.Set("location", fmt.Sprintf("%f,%f", params.Lat, params.Lng))
	query.Set("radius", strconv.Itoa(radius))
	query.Set("type", params.Type)
	query.Set("key", s.cfg.APIKey)

	var parsed nearbyResponse
	if err := s.getJSON(ctx, s.cfg.BaseURL+"/place/nearbysearch/json?"+query.Encode(), &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "OK" && parsed.Status != "ZERO_RESULTS" {
		message := parsed.ErrorMessage
		if message == "" {
			message = parsed.Status
		}
		return nil, &ProviderError{StatusCode: http.StatusBadGateway, Message: message}
	}

	places := make([]place.Place, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		meters := geo.Distance(params.Lat, params.Lng, result.Geometry.Location.Lat, result.Geometry.Location.Lng)

		p := place.Place{
			ID:      result.PlaceID,
			Name:    result.Name,
			Address: result.Vicinity,
			Location: place.Location{
				Lat: result.Geometry.Location.Lat,
				Lng: result.Geometry.Location.Lng,
			},
			Rating:           result.Rating,
			UserRatingsTotal: result.UserRatingsTotal,
			DistanceMeters:   &meters,
			DistanceText:     geo.FormatDistance(meters),
			WalkingEstimate:  geo.WalkingTime(meters),
		}
		if result.OpeningHours != nil {
			p.OpenNow = result.OpeningHours.OpenNow
		}
		for _, photo := range result.Photos {
			p.Photos = append(p.Photos, place.Photo{
				Reference: photo.PhotoReference,
				Width:     photo.Width,
				Height:    photo.Height,
			})
		}
		places = append(places, p)
	}

	sort.SliceStable(places, func(i, j int) bool {
		return *places[i].DistanceMeters < *places[j].DistanceMeters
	})
	if len(places) > maxResults {
		places = places[:maxResults]
	}

	if len(places) > 0 && s.cfg.TravelTimesEnabled() {
		s.annotateTravelTimes(ctx, params, places)
	}

	return places, nil
}

// annotateTravelTimes runs one walking and one driving matrix lookup
// concurrently and zips the per-destination durations back by index. Any
// failure degrades to unannotated results, never to a failed search.
func (s *Service) annotateTravelTimes(ctx context.Context, params SearchParams, places []place.Place) {
	origin := fmt.Sprintf("%f,%f", params.Lat, params.Lng)
	destinations := make([]string, len(places))
	for i, p := range places {
		destinations[i] = fmt.Sprintf("%f,%f", p.Location.Lat, p.Location.Lng)
	}
	dest := strings.Join(destinations, "|")

	type modeResult struct {
		mode      string
		durations []string
		err       error
	}

	results := make(chan modeResult, 2)
	for _, mode := range []string{"walking", "driving"} {
		go func(mode string) {
			durations, err := s.matrixDurations(ctx, origin, dest, mode)
			results <- modeResult{mode: mode, durations: durations, err: err}
		}(mode)
	}

	for i := 0; i < 2; i++ {
		result := <-results
		if result.err != nil {
			log.Printf("[places] %s travel-time lookup failed, returning without annotations: %v", result.mode, result.err)
			continue
		}
		for j := range places {
			if j >= len(result.durations) || result.durations[j] == "" {
				continue
			}
			if places[j].TravelTimes == nil {
				places[j].TravelTimes = &place.TravelTimes{}
			}
			switch result.mode {
			case "walking":
				places[j].TravelTimes.Walking = result.durations[j]
			case "driving":
				places[j].TravelTimes.Driving = result.durations[j]
			}
		}
	}
}

// TravelTimes resolves durations between pipe-separated origin and
// destination lists, paired by index, for the standalone endpoint.
func (s *Service) TravelTimes(ctx context.Context, origins, destinations string) ([]place.TravelTimes, error) {
	walking, err := s.matrixDurations(ctx, origins, destinations, "walking")
	if err != nil {
		return nil, err
	}
	driving, err := s.matrixDurations(ctx, origins, destinations, "driving")
	if err != nil {
		return nil, err
	}

	count := len(walking)
	if len(driving) > count {
		count = len(driving)
	}
	times := make([]place.TravelTimes, count)
	for i := range times {
		if i < len(walking) {
			times[i].Walking = walking[i]
		}
		if i < len(driving) {
			times[i].Driving = driving[i]
		}
	}
	return times, nil
}

func (s *Service) matrixDurations(ctx context.Context, origins, destinations, mode string) ([]string, error) {
	query := url.Values{}
	query.Set("origins", origins)
	query.Set("destinations", destinations)
	query.Set("mode", mode)
	query.Set("key", s.cfg.APIKey)

	var parsed matrixResponse
	if err := s.getJSON(ctx, s.cfg.BaseURL+"/distancematrix/json?"+query.Encode(), &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "OK" || len(parsed.Rows) == 0 {
		return nil, fmt.Errorf("distance matrix status %q", parsed.Status)
	}

	// A single origin yields one row of per-destination elements. With
	// multiple origins the provider returns one row per origin, and the
	// contract pairs origins[i] with destinations[i], so take the diagonal.
	if len(parsed.Rows) == 1 {
		elements := parsed.Rows[0].Elements
		durations := make([]string, len(elements))
		for i, element := range elements {
			if element.Status == "OK" {
				durations[i] = element.Duration.Text
			}
		}
		return durations, nil
	}

	durations := make([]string, len(parsed.Rows))
	for i, row := range parsed.Rows {
		if i >= len(row.Elements) {
			continue
		}
		if element := row.Elements[i]; element.Status == "OK" {
			durations[i] = element.Duration.Text
		}
	}
	return durations, nil
}

// PhotoURL builds the provider photo URL used by the redirect endpoint.
func (s *Service) PhotoURL(reference string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 400
	}
	query := url.Values{}
	query.Set("photoreference", reference)
	query.Set("maxwidth", strconv.Itoa(maxWidth))
	query.Set("key", s.cfg.APIKey)
	return s.cfg.BaseURL + "/place/photo?" + query.Encode()
}

func (s *Service) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build places request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read places response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{StatusCode: resp.StatusCode, Message: "error from places provider"}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode places response: %w", err)
	}
	return nil
}
