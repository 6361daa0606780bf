package mapaggr

import (
	geojson "github.com/paulmach/go.geojson"

	"carehome-insights/models"
)

// ToGeoJSON renders pins as a FeatureCollection for map overlays. Aggregate
// pins carry count and mean score; single-home pins keep their identity.
func ToGeoJSON(pins []models.MapPin) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, pin := range pins {
		feature := geojson.NewPointFeature([]float64{pin.Longitude, pin.Latitude})
		feature.Properties["count"] = pin.Count
		feature.Properties["score"] = pin.Score
		if pin.HomeID != "" {
			feature.Properties["home_id"] = pin.HomeID
			feature.Properties["name"] = pin.Name
			feature.Properties["category"] = pin.Category
		}
		fc.AddFeature(feature)
	}
	return fc
}
