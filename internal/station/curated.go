package station

import "github.com/bbernstein/tideresonance/backend-go/internal/models"

type Region string

const (
	RegionUKIreland   Region = "UK & Ireland"
	RegionEurope      Region = "Europe"
	RegionAmericas    Region = "Americas"
	RegionAsiaPacific Region = "Asia Pacific"
	RegionAfrica      Region = "Africa"
)

// Regions lists regions in display order.
var Regions = []Region{RegionUKIreland, RegionEurope, RegionAmericas, RegionAsiaPacific, RegionAfrica}

// CuratedLocation is a well-known place offered for manual location selection.
type CuratedLocation struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Region    Region  `json:"region"`
}

// GeoLocation turns the curated place into a manual location.
func (c CuratedLocation) GeoLocation() models.GeoLocation {
	return models.GeoLocation{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Source:    models.LocationSourceManual,
		Label:     c.Name,
	}
}

var CuratedLocations = []CuratedLocation{
	{Name: "Whitby", Latitude: 54.486, Longitude: -0.615, Country: "United Kingdom", Region: RegionUKIreland},
	{Name: "North Shields", Latitude: 55.007, Longitude: -1.440, Country: "United Kingdom", Region: RegionUKIreland},
	{Name: "Brighton", Latitude: 50.815, Longitude: -0.137, Country: "United Kingdom", Region: RegionUKIreland},
	{Name: "Bristol", Latitude: 51.511, Longitude: -2.712, Country: "United Kingdom", Region: RegionUKIreland},
	{Name: "London Bridge", Latitude: 51.507, Longitude: -0.087, Country: "United Kingdom", Region: RegionUKIreland},
	{Name: "Liverpool", Latitude: 53.450, Longitude: -3.018, Country: "United Kingdom", Region: RegionUKIreland},
	{Name: "Dublin", Latitude: 53.347, Longitude: -6.220, Country: "Ireland", Region: RegionUKIreland},

	{Name: "Lisbon", Latitude: 38.708, Longitude: -9.133, Country: "Portugal", Region: RegionEurope},
	{Name: "Amsterdam", Latitude: 52.379, Longitude: 4.897, Country: "Netherlands", Region: RegionEurope},
	{Name: "Reykjavik", Latitude: 64.153, Longitude: -21.946, Country: "Iceland", Region: RegionEurope},

	{Name: "San Francisco", Latitude: 37.807, Longitude: -122.465, Country: "United States", Region: RegionAmericas},
	{Name: "New York", Latitude: 40.700, Longitude: -74.014, Country: "United States", Region: RegionAmericas},
	{Name: "Miami", Latitude: 25.768, Longitude: -80.132, Country: "United States", Region: RegionAmericas},
	{Name: "Seattle", Latitude: 47.602, Longitude: -122.339, Country: "United States", Region: RegionAmericas},

	{Name: "Sydney", Latitude: -33.856, Longitude: 151.226, Country: "Australia", Region: RegionAsiaPacific},
	{Name: "Tokyo", Latitude: 35.652, Longitude: 139.770, Country: "Japan", Region: RegionAsiaPacific},
	{Name: "Hong Kong", Latitude: 22.286, Longitude: 114.188, Country: "China", Region: RegionAsiaPacific},

	{Name: "Cape Town", Latitude: -33.904, Longitude: 18.437, Country: "South Africa", Region: RegionAfrica},
}

// CuratedByRegion groups CuratedLocations by region, keeping list order.
func CuratedByRegion() map[Region][]CuratedLocation {
	groups := make(map[Region][]CuratedLocation, len(Regions))
	for _, c := range CuratedLocations {
		groups[c.Region] = append(groups[c.Region], c)
	}
	return groups
}
