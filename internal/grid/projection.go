package grid

import "math"

// Stereographic projection constants used only internally for
// triangulating curvilinear/unstructured sources (spec §4.5): centered
// at 90degN, true-scale latitude 60degN, reference longitude -105deg.
// This avoids pole/wraparound artifacts in the source point cloud
// before triangulating it.
const (
	stereoOriginLat  = 90.0
	stereoTrueScaleLat = 60.0
	stereoRefLon     = -105.0
	earthRadiusM     = 6371200.0
)

// ForwardStereographic projects a WGS84 (lon,lat) pair into the
// polar-stereographic plane used for triangulation.
func ForwardStereographic(lon, lat float64) (x, y float64) {
	const deg2rad = math.Pi / 180.0

	lonRad := (lon - stereoRefLon) * deg2rad
	latRad := lat * deg2rad
	trueScaleRad := stereoTrueScaleLat * deg2rad

	// Polar stereographic, north-polar aspect (Snyder 1987 eq. 21-33/21-34
	// specialized to a spherical earth).
	k := (1 + math.Sin(trueScaleRad)) / (1 + math.Sin(latRad))
	rho := earthRadiusM * k * math.Cos(latRad)

	x = rho * math.Sin(lonRad)
	y = -rho * math.Cos(lonRad)
	return x, y
}

// InverseStereographic is the inverse of ForwardStereographic.
func InverseStereographic(x, y float64) (lon, lat float64) {
	const rad2deg = 180.0 / math.Pi

	rho := math.Hypot(x, y)
	if rho < 1e-9 {
		return stereoRefLon, stereoOriginLat
	}

	trueScaleRad := stereoTrueScaleLat * math.Pi / 180.0
	k := rho / (earthRadiusM * (1 + math.Sin(trueScaleRad)))
	latRad := math.Asin((1 - k*k) / (1 + k*k))
	lonRad := math.Atan2(x, -y)

	lon = lonRad*rad2deg + stereoRefLon
	lat = latRad * rad2deg
	return lon, lat
}
