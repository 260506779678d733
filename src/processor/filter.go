package processor

// Filter returns the records whose iso_region equals state and whose type
// equals airportType, in input order. No match yields an empty Table.
func Filter(t Table, state, airportType string) Table {
	out := Table{}
	for _, r := range t {
		if r.ISORegion == state && r.Type == airportType {
			out = append(out, r)
		}
	}
	return out
}
