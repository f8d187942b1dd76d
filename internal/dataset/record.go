// Package dataset loads the crime incident table that every renderer
// consumes.
package dataset

// Known offense categories in the DC homicide subset.
const (
	OffenseSexAbuse = "SEX ABUSE"
	OffenseHomicide = "HOMICIDE"
)

// Known weapon method categories.
const (
	MethodGun    = "GUN"
	MethodKnife  = "KNIFE"
	MethodOthers = "OTHERS"
)

// Record is one crime incident row. Records are read-only once loaded.
type Record struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Offense   string  `json:"offense"`
	Method    string  `json:"method"`
	StartDate string  `json:"start_date"`
}

// Lons returns the longitude column of the table.
func Lons(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Longitude
	}
	return out
}

// Lats returns the latitude column of the table.
func Lats(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Latitude
	}
	return out
}
