package processor

// newEngland is a small hand-built table covering every selector combination
// the tests use.
func newEngland() Table {
	return Table{
		{Name: "General Edward Lawrence Logan International Airport", ElevationFt: 20, ISORegion: "US-MA", Type: "large_airport", LatitudeDeg: 42.3643, LongitudeDeg: -71.005203},
		{Name: "Small Field", ElevationFt: 100, ISORegion: "US-MA", Type: "small_airport", LatitudeDeg: 42.1, LongitudeDeg: -71.5},
		{Name: "Hopedale Airport", ElevationFt: 260, ISORegion: "US-MA", Type: "small_airport", LatitudeDeg: 42.1065, LongitudeDeg: -71.5101},
		{Name: "Tanner-Hiller Airport", ElevationFt: 260, ISORegion: "US-MA", Type: "small_airport", LatitudeDeg: 42.3557, LongitudeDeg: -72.1287},
		{Name: "Summit Heliport", ElevationFt: 6288, ISORegion: "US-NH", Type: "heliport", LatitudeDeg: 44.2706, LongitudeDeg: -71.3033},
		{Name: "Bangor International Airport", ElevationFt: 192, ISORegion: "US-ME", Type: "medium_airport", LatitudeDeg: 44.8074, LongitudeDeg: -68.828102},
		{Name: "Moosehead AIRPORT", ElevationFt: 1030, ISORegion: "US-ME", Type: "small_airport", LatitudeDeg: 45.1, LongitudeDeg: -69.2},
	}
}
