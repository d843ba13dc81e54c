// internal/models/driver.go
package models

import "sort"

type Driver struct {
	Name   string `json:"name"`
	Team   string `json:"team"`
	Number int    `json:"number"`
}

// Roster2025 is the fixed grid the generator fans out over.
var Roster2025 = []Driver{
	{Name: "Max Verstappen", Team: "Red Bull", Number: 1},
	{Name: "Yuki Tsunoda", Team: "Red Bull", Number: 22},
	{Name: "Lewis Hamilton", Team: "Ferrari", Number: 44},
	{Name: "Charles Leclerc", Team: "Ferrari", Number: 16},
	{Name: "Lando Norris", Team: "McLaren", Number: 4},
	{Name: "Oscar Piastri", Team: "McLaren", Number: 81},
	{Name: "George Russell", Team: "Mercedes", Number: 63},
	{Name: "Kimi Antonelli", Team: "Mercedes", Number: 12},
	{Name: "Fernando Alonso", Team: "Aston Martin", Number: 14},
	{Name: "Lance Stroll", Team: "Aston Martin", Number: 18},
	{Name: "Pierre Gasly", Team: "Alpine", Number: 10},
	{Name: "Franco Colapinto", Team: "Alpine", Number: 45},
	{Name: "Esteban Ocon", Team: "Haas", Number: 31},
	{Name: "Oliver Bearman", Team: "Haas", Number: 87},
	{Name: "Alex Albon", Team: "Williams", Number: 23},
	{Name: "Carlos Sainz", Team: "Williams", Number: 55},
	{Name: "Liam Lawson", Team: "Racing Bulls", Number: 30},
	{Name: "Isack Hadjar", Team: "Racing Bulls", Number: 6},
	{Name: "Nico Hulkenberg", Team: "Sauber", Number: 27},
	{Name: "Gabriel Bortoleto", Team: "Sauber", Number: 5},
}

var TeamColors = map[string]string{
	"Red Bull":     "#3671C6",
	"Ferrari":      "#E8002D",
	"McLaren":      "#FF8000",
	"Mercedes":     "#27F4D2",
	"Aston Martin": "#229971",
	"Alpine":       "#FF87BC",
	"Haas":         "#B6BABD",
	"Williams":     "#64C4FF",
	"Racing Bulls": "#6692FF",
	"Sauber":       "#52E252",
}

func FindDriver(name string) (Driver, bool) {
	for _, d := range Roster2025 {
		if d.Name == name {
			return d, true
		}
	}
	return Driver{}, false
}

func FindDriverByNumber(number int) (Driver, bool) {
	for _, d := range Roster2025 {
		if d.Number == number {
			return d, true
		}
	}
	return Driver{}, false
}

// DisplayName maps upstream full names onto roster names.
func DisplayName(fullName string) string {
	if fullName == "Andrea Kimi Antonelli" {
		return "Kimi Antonelli"
	}
	return fullName
}

// ChampionshipStanding is one row of the current drivers' championship.
type ChampionshipStanding struct {
	Position int     `json:"position"`
	Points   float64 `json:"points"`
}

// SortByChampionship returns a copy of roster ordered by championship
// position. Drivers missing from standings sort last in roster order.
func SortByChampionship(roster []Driver, standings map[string]ChampionshipStanding) []Driver {
	out := make([]Driver, len(roster))
	copy(out, roster)
	pos := func(d Driver) int {
		if s, ok := standings[d.Name]; ok && s.Position > 0 {
			return s.Position
		}
		return 999
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pos(out[i]) < pos(out[j])
	})
	return out
}
