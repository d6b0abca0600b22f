package export

// Group is a labelled run of rows, e.g. all bookings on one date.
type Group struct {
	Label string
	Rows  [][]string
}

// Sheet is the tabular content of an export. The first column of every
// rendered record is the group label.
type Sheet struct {
	Title   string
	Headers []string
	Groups  []Group
}

func (s Sheet) width() int {
	return len(s.Headers)
}

func (s Sheet) rowCount() int {
	total := 0
	for _, g := range s.Groups {
		total += len(g.Rows)
	}
	return total
}
