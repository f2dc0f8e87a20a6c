package config

import (
	"fmt"
	"sort"
)

// District represents a Lyon arrondissement and its map position.
type District struct {
	Number    int     `json:"number"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LyonDistricts lists the nine arrondissements with approximate centroids.
var LyonDistricts = []District{
	{Number: 1, Name: "Lyon 1er", Latitude: 45.7699, Longitude: 4.8292},
	{Number: 2, Name: "Lyon 2e", Latitude: 45.7485, Longitude: 4.8270},
	{Number: 3, Name: "Lyon 3e", Latitude: 45.7597, Longitude: 4.8490},
	{Number: 4, Name: "Lyon 4e", Latitude: 45.7787, Longitude: 4.8263},
	{Number: 5, Name: "Lyon 5e", Latitude: 45.7580, Longitude: 4.8020},
	{Number: 6, Name: "Lyon 6e", Latitude: 45.7695, Longitude: 4.8500},
	{Number: 7, Name: "Lyon 7e", Latitude: 45.7440, Longitude: 4.8400},
	{Number: 8, Name: "Lyon 8e", Latitude: 45.7350, Longitude: 4.8690},
	{Number: 9, Name: "Lyon 9e", Latitude: 45.7740, Longitude: 4.8060},
}

// DistrictName returns the canonical name for arrondissement n ("Lyon 1er",
// "Lyon 2e", ...). ok is false outside 1..9.
func DistrictName(n int) (string, bool) {
	if n < 1 || n > 9 {
		return "", false
	}
	if n == 1 {
		return "Lyon 1er", true
	}
	return fmt.Sprintf("Lyon %de", n), true
}

// GetDistrictNames returns the sorted district names known to the market data.
func (m *MarketData) GetDistrictNames() []string {
	names := make([]string, 0, len(m.Districts))
	for name := range m.Districts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
