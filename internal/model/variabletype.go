package model

import "fmt"

// VariableType is the user-facing grouping requested in the input JSON's
// data_type field. It expands to one or more MetDataType components.
type VariableType string

const (
	AllVariables       VariableType = "all_variables"
	WindPressure       VariableType = "wind_pressure"
	VarPressure        VariableType = "pressure"
	VarWind            VariableType = "wind"
	VarPrecipitation   VariableType = "precipitation"
	VarTemperature     VariableType = "temperature"
	VarHumidity        VariableType = "humidity"
	VarIce             VariableType = "ice"
	PrecipitationType  VariableType = "precipitation_type"
)

// VariableTypeFromString parses the data_type request field, accepting
// "rain" as a synonym for "precipitation".
func VariableTypeFromString(s string) (VariableType, error) {
	switch s {
	case "wind_pressure":
		return WindPressure, nil
	case "pressure":
		return VarPressure, nil
	case "wind":
		return VarWind, nil
	case "precipitation", "rain":
		return VarPrecipitation, nil
	case "temperature":
		return VarTemperature, nil
	case "humidity":
		return VarHumidity, nil
	case "ice":
		return VarIce, nil
	case "all_variables":
		return AllVariables, nil
	case "precipitation_type":
		return PrecipitationType, nil
	default:
		return "", fmt.Errorf("variabletype: invalid data type: %s", s)
	}
}

// Select returns the ordered MetDataType components this VariableType
// expands to.
func (v VariableType) Select() ([]MetDataType, error) {
	switch v {
	case WindPressure:
		return []MetDataType{Pressure, WindU, WindV}, nil
	case VarPressure:
		return []MetDataType{Pressure}, nil
	case VarWind:
		return []MetDataType{WindU, WindV}, nil
	case VarPrecipitation:
		return []MetDataType{Precipitation}, nil
	case VarTemperature:
		return []MetDataType{Temperature}, nil
	case VarHumidity:
		return []MetDataType{Humidity}, nil
	case VarIce:
		return []MetDataType{Ice}, nil
	case PrecipitationType:
		return []MetDataType{Precipitation, CatRain, CatSnow, CatIce, CatFreezingRain}, nil
	case AllVariables:
		return []MetDataType{
			Pressure, WindU, WindV, Temperature, Humidity, Precipitation, Ice,
			SurfaceStressU, SurfaceStressV, SurfaceLatentFlux, SurfaceSensibleFlux,
			SurfaceLongwaveFlux, SurfaceSolarFlux, SurfaceNetFlux,
			CatRain, CatSnow, CatIce, CatFreezingRain,
		}, nil
	default:
		return nil, fmt.Errorf("variabletype: invalid data type: %s", v)
	}
}
