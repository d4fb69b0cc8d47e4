package place

// ValidTypes lists the facility types the places proxy accepts.
var ValidTypes = []string{"pharmacy", "doctor", "hospital", "dentist", "physiotherapist"}

// IsValidType reports whether the facility type is one the proxy serves.
func IsValidType(t string) bool {
	for _, valid := range ValidTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TravelTimes carries best-effort walking and driving durations to a
// facility, as reported by the distance-matrix provider.
type TravelTimes struct {
	Walking string `json:"walking,omitempty"`
	Driving string `json:"driving,omitempty"`
}

// Photo references a provider-hosted facility photo.
type Photo struct {
	Reference string `json:"reference"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Place is one healthcare facility, built per request from the provider's
// result set and never persisted.
type Place struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Address          string       `json:"address"`
	Location         Location     `json:"location"`
	Rating           float64      `json:"rating,omitempty"`
	UserRatingsTotal int          `json:"userRatingsTotal,omitempty"`
	OpenNow          *bool        `json:"openNow,omitempty"`
	Photos           []Photo      `json:"photos,omitempty"`
	DistanceMeters   *int         `json:"distanceMeters,omitempty"`
	DistanceText     string       `json:"distanceText,omitempty"`
	WalkingEstimate  string       `json:"walkingEstimate,omitempty"`
	TravelTimes      *TravelTimes `json:"travelTimes,omitempty"`
}
