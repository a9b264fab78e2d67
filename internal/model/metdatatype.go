package model

import "fmt"

// MetDataType is the canonical, source-independent meteorological field
// name every source descriptor's variable table maps onto.
type MetDataType string

const (
	Pressure           MetDataType = "pressure"
	WindU              MetDataType = "wind_u"
	WindV              MetDataType = "wind_v"
	Temperature        MetDataType = "temperature"
	Humidity           MetDataType = "humidity"
	Precipitation      MetDataType = "precipitation"
	Ice                MetDataType = "ice"
	SurfaceStressU     MetDataType = "surface_stress_u"
	SurfaceStressV     MetDataType = "surface_stress_v"
	SurfaceLatentFlux  MetDataType = "surface_latent_flux"
	SurfaceSensibleFlux MetDataType = "surface_sensible_flux"
	SurfaceLongwaveFlux MetDataType = "surface_longwave_flux"
	SurfaceSolarFlux   MetDataType = "surface_solar_flux"
	SurfaceNetFlux     MetDataType = "surface_net_flux"
	CatRain            MetDataType = "cat_rain"
	CatSnow            MetDataType = "cat_snow"
	CatIce             MetDataType = "cat_ice"
	CatFreezingRain    MetDataType = "cat_freezing_rain"
)

// CFLongName returns the CF-1.6 long_name attribute used by the CF-NetCDF
// and OWI-NetCDF writers.
func (m MetDataType) CFLongName() string {
	switch m {
	case Pressure:
		return "air pressure at sea level"
	case WindU:
		return "10 metre U wind component"
	case WindV:
		return "10 metre V wind component"
	case Temperature:
		return "air temperature"
	case Humidity:
		return "relative humidity"
	case Precipitation:
		return "precipitation rate"
	case Ice:
		return "ice concentration"
	case SurfaceStressU:
		return "surface downward eastward stress"
	case SurfaceStressV:
		return "surface downward northward stress"
	case SurfaceLatentFlux:
		return "surface downward latent heat flux"
	case SurfaceSensibleFlux:
		return "surface downward sensible heat flux"
	case SurfaceLongwaveFlux:
		return "surface net downward longwave flux"
	case SurfaceSolarFlux:
		return "surface net downward shortwave flux"
	case SurfaceNetFlux:
		return "surface net downward flux"
	case CatRain:
		return "categorical rain"
	case CatSnow:
		return "categorical snow"
	case CatIce:
		return "categorical ice pellets"
	case CatFreezingRain:
		return "categorical freezing rain"
	default:
		return string(m)
	}
}

// Units returns the CF units string for the field after the source's scale
// factor has been applied.
func (m MetDataType) Units() string {
	switch m {
	case Pressure:
		return "hPa"
	case WindU, WindV:
		return "m s-1"
	case Temperature:
		return "degC"
	case Humidity:
		return "percent"
	case Precipitation:
		return "mm hr-1"
	case Ice:
		return "1"
	case SurfaceStressU, SurfaceStressV:
		return "N m-2"
	case SurfaceLatentFlux, SurfaceSensibleFlux, SurfaceLongwaveFlux, SurfaceSolarFlux, SurfaceNetFlux:
		return "W m-2"
	case CatRain, CatSnow, CatIce, CatFreezingRain:
		return "1"
	default:
		return ""
	}
}

// NetCDFVariableName returns the short variable name used by the
// OWI-NetCDF writer's per-group variables.
func (m MetDataType) NetCDFVariableName() (string, error) {
	switch m {
	case Pressure:
		return "PSFC", nil
	case WindU:
		return "U10", nil
	case WindV:
		return "V10", nil
	case Temperature:
		return "TEMP", nil
	case Humidity:
		return "RH", nil
	case Precipitation:
		return "PRCP", nil
	case Ice:
		return "ICE", nil
	case CatRain:
		return "CRAIN", nil
	case CatSnow:
		return "CSNOW", nil
	case CatIce:
		return "CICE", nil
	case CatFreezingRain:
		return "CFRZR", nil
	default:
		return "", fmt.Errorf("metdatatype: %s has no OWI-NetCDF variable mapping", m)
	}
}
