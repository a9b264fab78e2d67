package registry

import "github.com/waterinstitute/metget/internal/model"

func f(v float64) *float64 { return &v }

// standardSources builds the static table, grounded on
// original_source's metfiletype.py variable/cycle tables.
func standardSources() []*model.SourceDescriptor {
	var all []*model.SourceDescriptor

	all = append(all, &model.SourceDescriptor{
		Name: "gfs-ncep", TableName: "gfs_ncep", FileFormat: model.FormatGRIB,
		Bucket: "noaa-gfs-bdp-pds", EPSG: 4326, Cycles: []int{0, 6, 12, 18},
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:         {GribShortName: "10u", Scale: 1.0, NullValue: -999},
			model.WindV:         {GribShortName: "10v", Scale: 1.0, NullValue: -999},
			model.Pressure:      {GribShortName: "prmsl", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
			model.Ice:           {GribShortName: "icec", Scale: 1.0, NullValue: -999},
			model.Precipitation: {GribShortName: "prate", Scale: 3600.0, NullValue: 0},
			model.Humidity:      {GribShortName: "r", Scale: 1.0, NullValue: -999},
			model.Temperature:   {GribShortName: "t", Scale: 1.0, DefaultValue: f(20.0), NullValue: -999},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "nam-ncep", TableName: "nam_ncep", FileFormat: model.FormatGRIB,
		Bucket: "noaa-nam-pds", EPSG: 4326, Cycles: []int{0, 6, 12, 18},
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:         {GribShortName: "10u", Scale: 1.0, NullValue: -999},
			model.WindV:         {GribShortName: "10v", Scale: 1.0, NullValue: -999},
			model.Pressure:      {GribShortName: "prmsl", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
			model.Precipitation: {GribShortName: "acpcp", Scale: 3600.0, IsAccumulated: true, NullValue: 0},
			model.Humidity:      {GribShortName: "r", Scale: 1.0, NullValue: -999},
			model.Temperature:   {GribShortName: "t", Scale: 1.0, DefaultValue: f(20.0), NullValue: -999},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "gefs-ncep", TableName: "gefs_ncep", FileFormat: model.FormatGRIB,
		Bucket: "noaa-gefs-pds", EPSG: 4326, Cycles: []int{0, 6, 12, 18},
		EnsembleMembers: ensembleMembers(30),
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:         {GribShortName: "10u", Scale: 1.0, NullValue: -999},
			model.WindV:         {GribShortName: "10v", Scale: 1.0, NullValue: -999},
			model.Pressure:      {GribShortName: "prmsl", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
			model.Precipitation: {GribShortName: "prate", Scale: 3600.0, NullValue: 0},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "hrrr-ncep", TableName: "hrrr_ncep", FileFormat: model.FormatGRIB,
		Bucket: "noaa-hrrr-bdp-pds", EPSG: 4326, Cycles: cycleRange(24),
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:         {GribShortName: "10u", Scale: 1.0, NullValue: -999},
			model.WindV:         {GribShortName: "10v", Scale: 1.0, NullValue: -999},
			model.Pressure:      {GribShortName: "mslma", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
			model.Precipitation: {GribShortName: "prate", Scale: 3600.0, NullValue: 0},
			model.Temperature:   {GribShortName: "t", Scale: 1.0, DefaultValue: f(20.0), NullValue: -999},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "hrrr-alaska-ncep", TableName: "hrrr_alaska_ncep", FileFormat: model.FormatGRIB,
		Bucket: "noaa-hrrr-bdp-pds", EPSG: 4326, Cycles: cycleRange(24),
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:    {GribShortName: "10u", Scale: 1.0, NullValue: -999},
			model.WindV:    {GribShortName: "10v", Scale: 1.0, NullValue: -999},
			model.Pressure: {GribShortName: "mslma", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "hwrf", TableName: "hwrf", FileFormat: model.FormatGRIB,
		Bucket: "", EPSG: 4326, Cycles: []int{0, 6, 12, 18}, IsStorm: true,
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:    {GribShortName: "10u", Scale: 1.0, NullValue: -999},
			model.WindV:    {GribShortName: "10v", Scale: 1.0, NullValue: -999},
			model.Pressure: {GribShortName: "prmsl", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "ncep-hafs-a", TableName: "ncep_hafs_a", FileFormat: model.FormatGRIB,
		Bucket: "noaa-nws-hafs-pds", EPSG: 4326, Cycles: []int{0, 6, 12, 18}, IsStorm: true,
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:    {GribShortName: "10u", Scale: 1.0, NullValue: -999},
			model.WindV:    {GribShortName: "10v", Scale: 1.0, NullValue: -999},
			model.Pressure: {GribShortName: "prmsl", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "ncep-hafs-b", TableName: "ncep_hafs_b", FileFormat: model.FormatGRIB,
		Bucket: "noaa-nws-hafs-pds", EPSG: 4326, Cycles: []int{0, 6, 12, 18}, IsStorm: true,
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:    {GribShortName: "10u", Scale: 1.0, NullValue: -999},
			model.WindV:    {GribShortName: "10v", Scale: 1.0, NullValue: -999},
			model.Pressure: {GribShortName: "prmsl", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "coamps-tc", TableName: "coamps_tc", FileFormat: model.FormatCoampsNC,
		Bucket: "", EPSG: 4326, Cycles: []int{0, 6, 12, 18}, IsStorm: true,
		NativeNi: 241, NativeNj: 241, LonVariable: "lon", LatVariable: "lat",
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:    {GribShortName: "uuwind", Scale: 1.0, NullValue: -999},
			model.WindV:    {GribShortName: "vvwind", Scale: 1.0, NullValue: -999},
			model.Pressure: {GribShortName: "slpres", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "coamps-ctcx", TableName: "coamps_ctcx", FileFormat: model.FormatCoampsNC,
		Bucket: "", EPSG: 4326, Cycles: []int{0, 6, 12, 18}, IsStorm: true,
		NativeNi: 241, NativeNj: 241, LonVariable: "lon", LatVariable: "lat",
		EnsembleMembers: ensembleMembers(20),
		Variables: map[model.MetDataType]model.VariableBinding{
			model.WindU:    {GribShortName: "uuwind", Scale: 1.0, NullValue: -999},
			model.WindV:    {GribShortName: "vvwind", Scale: 1.0, NullValue: -999},
			model.Pressure: {GribShortName: "slpres", Scale: 0.01, DefaultValue: f(1013.0), NullValue: -999},
		},
	})

	// wpc-ncep: supplemented per SPEC_FULL.md — present in the original
	// registry and named in spec §1 but unspecified by the distillation.
	// Precipitation-only, no ensemble/storm dimension, 6-hourly cycles.
	all = append(all, &model.SourceDescriptor{
		Name: "wpc-ncep", TableName: "wpc_ncep", FileFormat: model.FormatGRIB,
		Bucket: "", EPSG: 4326, Cycles: []int{0, 6, 12, 18},
		Variables: map[model.MetDataType]model.VariableBinding{
			model.Precipitation: {GribShortName: "apcp", Scale: 1.0, IsAccumulated: true, AccumulationTime: f(6.0), NullValue: 0},
		},
	})

	all = append(all, &model.SourceDescriptor{
		Name: "nhc", TableName: "nhc_btk", FileFormat: model.FormatGRIB,
		EPSG: 4326, IsNHC: true, IsStorm: true,
	})

	return all
}

func cycleRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func ensembleMembers(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = memberName(i + 1)
	}
	return out
}

func memberName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "0" + string(digits[i])
	}
	return string(digits[i/10]) + string(digits[i%10])
}
