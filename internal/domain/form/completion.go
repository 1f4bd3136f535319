package form

// Progress summarises how much of a template has been answered.
type Progress struct {
	Sections map[string]int // section ID -> percent complete
	Overall  int
}

// SectionCompletion returns the percentage (0-100, rounded down) of required
// fields with a non-empty value. For a repeatable section every entry counts,
// so the denominator is required fields times entries. A section without
// required fields is complete.
func SectionCompletion(s Section, sr SectionResponse) int {
	filled, total := sectionSlots(s, sr)
	return percent(filled, total)
}

// Completion computes per-section and overall completion for a response set.
// The overall figure is taken over every required slot in the template, not
// averaged across sections.
func Completion(t Template, r Responses) Progress {
	p := Progress{Sections: make(map[string]int, len(t.Sections))}
	var filled, total int
	for _, s := range t.Sections {
		sr, ok := r[s.ID]
		if !ok {
			sr = emptySectionResponse(s)
		}
		f, n := sectionSlots(s, sr)
		p.Sections[s.ID] = percent(f, n)
		filled += f
		total += n
	}
	p.Overall = percent(filled, total)
	return p
}

func sectionSlots(s Section, sr SectionResponse) (filled, total int) {
	required := s.RequiredCount()
	if required == 0 {
		return 0, 0
	}
	var instances []Entry
	if s.Repeatable {
		if sr.Repeated {
			instances = sr.Repeats
		}
		if len(instances) == 0 {
			return 0, required
		}
	} else {
		instances = []Entry{sr.Entry}
	}
	for _, e := range instances {
		for _, f := range s.Fields {
			if !f.Required {
				continue
			}
			total++
			if fr, ok := e[f.ID]; ok && !IsEmpty(fr.Value) {
				filled++
			}
		}
	}
	return filled, total
}

func percent(filled, total int) int {
	if total == 0 {
		return 100
	}
	return filled * 100 / total
}
