package station

import "github.com/bbernstein/tideresonance/backend-go/internal/models"

func m2(amplitude, phase float64) []models.HarmonicConstituent {
	return []models.HarmonicConstituent{
		{Name: "M2", Amplitude: amplitude, Phase: phase},
		{Name: "S2", Amplitude: amplitude / 3, Phase: phase + 30},
	}
}

func testStations() []models.TideStation {
	return []models.TideStation{
		{
			ID: "whitby", Name: "Whitby", Country: "United Kingdom", Continent: "Europe", Timezone: "Europe/London",
			Latitude: 54.4833, Longitude: -0.6167, Type: models.StationTypeReference, Constituents: m2(1.8, 120),
		},
		{
			ID: "scarborough", Name: "Scarborough", Country: "United Kingdom", Continent: "Europe", Timezone: "Europe/London",
			Latitude: 54.2833, Longitude: -0.3833, Type: models.StationTypeReference, Constituents: m2(1.9, 118),
		},
		{
			ID: "sandsend", Name: "Sandsend", Country: "United Kingdom", Continent: "Europe", Timezone: "Europe/London",
			Latitude: 54.5, Longitude: -0.67, Type: models.StationTypeSubordinate,
			Offsets: &models.StationOffsets{
				Reference: "whitby",
				Height:    models.HeightOffsets{High: 0.95, Low: 0.9, Type: models.HeightOffsetRatio},
				Time:      models.TimeOffsets{High: 5, Low: 8},
			},
		},
		{
			ID: "north-shields", Name: "North Shields", Country: "United Kingdom", Continent: "Europe", Timezone: "Europe/London",
			Latitude: 55.0067, Longitude: -1.44, Type: models.StationTypeReference, Constituents: m2(1.6, 95),
		},
		{
			ID: "brest", Name: "Brest", Country: "France", Continent: "Europe", Timezone: "Europe/Paris",
			Latitude: 48.3829, Longitude: -4.495, Type: models.StationTypeReference, Constituents: m2(2.0, 140),
		},
	}
}
