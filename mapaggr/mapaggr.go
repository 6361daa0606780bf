// Package mapaggr clusters scored homes into map pins. Dense areas collapse
// into aggregate pins sized to the viewport so the dashboard map stays
// readable at any zoom level.
package mapaggr

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"carehome-insights/models"
)

type aggrUnit struct {
	cnt         int64
	scoreSum    float64
	containment [4]bool // 4 elements, one per child cell
	pin         s2.Point
	origHomes   []*models.ScoredHome
}

// Aggregator buckets homes into S2 cells and merges them level by level
// until the cells match the viewport scale.
type Aggregator struct {
	level  int
	points map[s2.CellID][]*models.ScoredHome
	aggrs  map[s2.CellID]*aggrUnit
}

const (
	expectedCells       = 16
	minLevel            = 2
	maxLevel            = 18
	minHomesToAggr      = 10
	weightDiffThreshold = 8
)

// CellBaseLevel picks the S2 cell level at which the viewport area is
// covered by roughly expectedCells cells.
func CellBaseLevel(vp *models.ViewPort, center *models.Point) int {
	minLL := s2.LatLngFromDegrees(vp.LatMin, vp.LonMin)
	maxLL := s2.LatLngFromDegrees(vp.LatMax, vp.LonMax)

	rect := s2.Rect{
		Lat: r1.Interval{
			Lo: minLL.Lat.Radians(),
			Hi: maxLL.Lat.Radians()},
		Lng: s1.Interval{
			Lo: minLL.Lng.Radians(),
			Hi: maxLL.Lng.Radians()},
	}

	vpArea := rect.Area()

	centerCell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(center.Lat, center.Lon))

	for lv := maxLevel; lv >= minLevel; lv-- {
		cc := s2.CellFromCellID(centerCell.Parent(lv))
		if vpArea/cc.ApproxArea() < expectedCells {
			return lv
		}
	}
	return minLevel
}

// NewAggregator creates an aggregator for the given viewport.
func NewAggregator(vp *models.ViewPort, center *models.Point) Aggregator {
	return Aggregator{
		level:  CellBaseLevel(vp, center),
		points: make(map[s2.CellID][]*models.ScoredHome),
		aggrs:  make(map[s2.CellID]*aggrUnit),
	}
}

// AddHome adds one scored home to the aggregation.
func (a *Aggregator) AddHome(home models.ScoredHome) {
	pc := s2.CellIDFromLatLng(s2.LatLngFromDegrees(home.Latitude, home.Longitude))
	parent := pc.Parent(maxLevel)
	a.points[parent] = append(a.points[parent], &home)
}

// ToPins runs the aggregation and renders the result. Cells holding up to
// minHomesToAggr homes emit each home as its own pin; denser cells emit one
// aggregate pin carrying the home count and mean score.
func (a *Aggregator) ToPins() []models.MapPin {
	a.aggregate()
	pins := make([]models.MapPin, 0, len(a.aggrs))
	for _, unit := range a.aggrs {
		if unit.cnt <= minHomesToAggr {
			for _, home := range unit.origHomes {
				pins = append(pins, models.MapPin{
					Latitude:  home.Latitude,
					Longitude: home.Longitude,
					Count:     1,
					HomeID:    home.ID,
					Name:      home.Name,
					Score:     home.Score,
					Category:  home.Category,
				})
			}
			continue
		}

		ll := s2.LatLngFromPoint(unit.pin)
		pins = append(pins, models.MapPin{
			Latitude:  ll.Lat.Degrees(),
			Longitude: ll.Lng.Degrees(),
			Count:     unit.cnt,
			Score:     math.Round(unit.scoreSum/float64(unit.cnt)*10) / 10,
		})
	}
	return pins
}

// computeCentroid places the aggregate pin at the centroid of the child
// pins, ignoring children dwarfed by their siblings so a lone outlier home
// does not drag the pin away from the cluster.
func (a *Aggregator) computeCentroid(pCell s2.CellID, chAggrs []*aggrUnit) s2.Point {
	fChPins := make([]s2.Point, 0)
	maxWeight := int64(0)
	for _, aggr := range chAggrs {
		if maxWeight < aggr.cnt {
			maxWeight = aggr.cnt
		}
	}
	for _, aggr := range chAggrs {
		if maxWeight/aggr.cnt < weightDiffThreshold {
			fChPins = append(fChPins, aggr.pin)
		}
	}
	switch len(fChPins) {
	case 1:
		return fChPins[0]
	case 2:
		return s2.PlanarCentroid(fChPins[0], fChPins[0], fChPins[1])
	case 3:
		return s2.PlanarCentroid(fChPins[0], fChPins[1], fChPins[2])
	}
	return s2.PointFromLatLng(pCell.LatLng())
}

func (a *Aggregator) aggrStep(level int) {
	if level < a.level {
		return
	}
	// Merge the current units one S2 cell level up
	next := make(map[s2.CellID]*aggrUnit)
	for cell, unit := range a.aggrs {
		p := cell.Parent(level)
		eu, ok := next[p]
		if !ok {
			next[p] = &aggrUnit{
				cnt:       unit.cnt,
				scoreSum:  unit.scoreSum,
				origHomes: unit.origHomes,
			}
		} else {
			next[p] = &aggrUnit{
				cnt:         eu.cnt + unit.cnt,
				scoreSum:    eu.scoreSum + unit.scoreSum,
				containment: eu.containment,
			}
			if eu.cnt+unit.cnt <= minHomesToAggr {
				next[p].origHomes = append(eu.origHomes, unit.origHomes...)
			}
		}
		// The unit sits one level below, so mark which child cell it fills
		next[p].containment[cell.ChildPosition(level+1)] = true
	}

	// Pin each merged unit at the centroid of its children's pins
	for pCell, pUnit := range next {
		children := make([]*aggrUnit, 0)
		for i, present := range pUnit.containment {
			if present {
				chCell := pCell.Children()[i]
				if chAggr, ok := a.aggrs[chCell]; ok {
					children = append(children, chAggr)
				}
			}
		}
		pUnit.pin = a.computeCentroid(pCell, children)
	}

	a.aggrs = next
	a.aggrStep(level - 1)
}

func (a *Aggregator) aggregate() {
	for cell, homes := range a.points {
		unit := &aggrUnit{
			cnt:         int64(len(homes)),
			containment: [4]bool{true, true, true, true},
			pin:         s2.PointFromLatLng(cell.LatLng()),
		}
		for _, home := range homes {
			unit.scoreSum += home.Score
		}
		if len(homes) <= minHomesToAggr {
			unit.origHomes = homes
		}
		a.aggrs[cell] = unit
	}
	a.aggrStep(maxLevel - 1)
}
