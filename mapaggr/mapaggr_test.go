package mapaggr

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"carehome-insights/models"
)

// A cluster of homes around Zurich plus viewports at two zoom levels.
var clusterCoords = [][2]float64{
	{47.31462939002329, 8.541340828180283},
	{47.31462939002329, 8.541340828180283},
	{47.31462939002329, 8.541340828180283},
	{47.31462939002329, 8.541340828180283},
	{47.33001916923687, 8.526018592128164},
	{47.33001916923687, 8.526018592128164},
	{47.33001916923687, 8.526018592128164},
	{47.32553912731774, 8.541040883060727},
	{47.342540664005575, 8.524205901684924},
	{47.33262304063603, 8.5200006810743},
	{47.3162507337501, 8.5439348359329},
	{47.31736001922385, 8.517462177871218},
	{47.38400103557999, 8.493601108716156},
	{47.39907725236555, 8.612192557531866},
}

var (
	wideViewPort = models.ViewPort{
		LatMin: 42.691869916020075,
		LonMin: -4.318880552071925,
		LatMax: 52.80861391899353,
		LonMax: 11.800429267075046,
	}
	wideCenter = models.Point{Lat: 47.7502419175, Lon: 3.7407743575}

	tightViewPort = models.ViewPort{
		LatMin: 47.00155041602738,
		LonMin: 7.875126253510233,
		LatMax: 47.73257160018401,
		LonMax: 8.979175225820796,
	}
	tightCenter = models.Point{Lat: 47.3670610081, Lon: 8.42715073967}
)

// clusterHomes alternates scores 75/85 so the cluster mean is exactly 80.
func clusterHomes() []models.ScoredHome {
	homes := make([]models.ScoredHome, 0, len(clusterCoords))
	for i, c := range clusterCoords {
		score := 75.0
		if i%2 == 1 {
			score = 85.0
		}
		homes = append(homes, models.ScoredHome{
			ID:        fmt.Sprintf("home-%d", i),
			Name:      fmt.Sprintf("Home %d", i),
			Latitude:  c[0],
			Longitude: c[1],
			Score:     score,
			Category:  "GOOD",
		})
	}
	return homes
}

func TestCellBaseLevel_ScalesWithViewport(t *testing.T) {
	wideLevel := CellBaseLevel(&wideViewPort, &wideCenter)
	tightLevel := CellBaseLevel(&tightViewPort, &tightCenter)

	assert.Less(t, wideLevel, tightLevel)
	assert.GreaterOrEqual(t, wideLevel, minLevel)
	assert.LessOrEqual(t, tightLevel, maxLevel)
}

func TestAggregator_WideViewportCollapsesCluster(t *testing.T) {
	a := NewAggregator(&wideViewPort, &wideCenter)
	for _, home := range clusterHomes() {
		a.AddHome(home)
	}
	a.AddHome(models.ScoredHome{
		ID:        "home-14",
		Name:      "Maison Calvados",
		Latitude:  48.95821274837425,
		Longitude: -0.5711499548796795,
		Score:     62.5,
		Category:  "ADEQUATE",
	})

	pins := a.ToPins()
	assert.Len(t, pins, 2)

	var aggregate, single *models.MapPin
	for i := range pins {
		if pins[i].Count > 1 {
			aggregate = &pins[i]
		} else {
			single = &pins[i]
		}
	}

	if assert.NotNil(t, aggregate) {
		assert.Equal(t, int64(14), aggregate.Count)
		assert.InDelta(t, 47.35315615503948, aggregate.Latitude, 1e-9)
		assert.InDelta(t, 8.536694425531673, aggregate.Longitude, 1e-9)
		assert.Equal(t, 80.0, aggregate.Score)
		assert.Empty(t, aggregate.HomeID)
		assert.Empty(t, aggregate.Category)
	}

	if assert.NotNil(t, single) {
		assert.Equal(t, "home-14", single.HomeID)
		assert.Equal(t, 48.95821274837425, single.Latitude)
		assert.Equal(t, -0.5711499548796795, single.Longitude)
		assert.Equal(t, 62.5, single.Score)
		assert.Equal(t, "ADEQUATE", single.Category)
	}
}

func TestAggregator_TightViewportKeepsHomesApart(t *testing.T) {
	a := NewAggregator(&tightViewPort, &tightCenter)
	for _, home := range clusterHomes() {
		a.AddHome(home)
	}

	pins := a.ToPins()
	assert.Len(t, pins, 14)

	ids := make(map[string]bool)
	for _, pin := range pins {
		assert.Equal(t, int64(1), pin.Count)
		ids[pin.HomeID] = true
	}
	assert.Len(t, ids, 14)
}

func TestToGeoJSON(t *testing.T) {
	pins := []models.MapPin{
		{Latitude: 51.5, Longitude: -0.1, Count: 12, Score: 71.4},
		{Latitude: 53.4, Longitude: -2.2, Count: 1, HomeID: "abc", Name: "Willow Lodge", Score: 85.0, Category: "GOOD"},
	}

	fc := ToGeoJSON(pins)
	assert.Len(t, fc.Features, 2)

	aggregate := fc.Features[0]
	assert.Equal(t, []float64{-0.1, 51.5}, aggregate.Geometry.Point)
	assert.Equal(t, int64(12), aggregate.Properties["count"])
	assert.NotContains(t, aggregate.Properties, "home_id")

	named := fc.Features[1]
	assert.Equal(t, "Willow Lodge", named.Properties["name"])
	assert.Equal(t, "GOOD", named.Properties["category"])

	data, err := json.Marshal(fc)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}
