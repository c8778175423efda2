package domain

// CatchAllSection receives ingredients whose section is not recognized.
const CatchAllSection = "Other"

// SectionFor returns section if it is enumerated, otherwise the catch-all.
func SectionFor(section string, sections []string) string {
	for _, s := range sections {
		if s == section {
			return s
		}
	}
	return CatchAllSection
}

// SectionOrder is the enumerated order with the catch-all appended when
// the list does not already name it.
func SectionOrder(sections []string) []string {
	for _, s := range sections {
		if s == CatchAllSection {
			return sections
		}
	}
	return append(append([]string(nil), sections...), CatchAllSection)
}
