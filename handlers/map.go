package handlers

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"carehome-insights/mapaggr"
	"carehome-insights/models"
)

// GetMap returns map pins for the viewport, clustering dense areas.
func (h *Handlers) GetMap(c *gin.Context) {
	var args models.MapArgs

	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /map call: %v", err)
		return
	}

	if !requireVersion(c, args.Version) {
		return
	}

	pins, err := h.buildPins(args.VPort, args.Center)
	if err != nil {
		log.Errorf("Failed to build map pins: %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.IndentedJSON(http.StatusOK, pins) // 200
}

// GetMapGeoJSON renders the same pins as a GeoJSON FeatureCollection, for
// clients that draw overlays instead of markers.
func (h *Handlers) GetMapGeoJSON(c *gin.Context) {
	vp, ok := viewportFromQuery(c)
	if !ok {
		return
	}

	pins, err := h.buildPins(vp, models.Point{})
	if err != nil {
		log.Errorf("Failed to build map pins: %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.JSON(http.StatusOK, mapaggr.ToGeoJSON(pins)) // 200
}

func (h *Handlers) buildPins(vp models.ViewPort, center models.Point) ([]models.MapPin, error) {
	homes, err := h.db.ListScoredHomes(vp)
	if err != nil {
		return nil, err
	}

	if center == (models.Point{}) {
		center = models.Point{
			Lat: (vp.LatMin + vp.LatMax) / 2,
			Lon: (vp.LonMin + vp.LonMax) / 2,
		}
	}

	a := mapaggr.NewAggregator(&vp, &center)
	for _, home := range homes {
		a.AddHome(home)
	}
	return a.ToPins(), nil
}

func viewportFromQuery(c *gin.Context) (models.ViewPort, bool) {
	var vp models.ViewPort
	for param, target := range map[string]*float64{
		"latmin": &vp.LatMin,
		"lonmin": &vp.LonMin,
		"latmax": &vp.LatMax,
		"lonmax": &vp.LonMax,
	} {
		value, err := strconv.ParseFloat(c.Query(param), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid '" + param + "' parameter. Must be a number."}) // 400
			return models.ViewPort{}, false
		}
		*target = value
	}
	return vp, true
}
