package spatial

import (
	"math"
	"strconv"
)

// GridPrecision is the number of decimals kept when binning coordinates.
// 3 decimals is ~111m of latitude; longitude cells shrink towards the poles.
const GridPrecision = 3

var gridScale = math.Pow(10, GridPrecision)

// RoundToGrid rounds a coordinate component to the grid precision
func RoundToGrid(v float64) float64 {
	r := math.Round(v*gridScale) / gridScale
	if r == 0 {
		// -0 and +0 must share a key
		r = 0
	}
	return r
}

// GridCellKey returns the aggregation key for a coordinate.
// Format: "lat_{rounded}_lng_{rounded}"
func GridCellKey(lat, lon float64) string {
	return "lat_" + strconv.FormatFloat(RoundToGrid(lat), 'f', -1, 64) +
		"_lng_" + strconv.FormatFloat(RoundToGrid(lon), 'f', -1, 64)
}
