package usecase

import "strings"

// Entry maps a substance (or brand) to its known usecase
type Entry struct {
	Key     string
	Usecase string
}

// Lookup resolves well-known medicines without calling the model.
// Entries are matched in order, so earlier keys win.
type Lookup struct {
	entries []Entry
}

// NewLookup creates a lookup over the given entries
func NewLookup(entries []Entry) *Lookup {
	return &Lookup{entries: append([]Entry(nil), entries...)}
}

// DefaultLookup returns the built-in table of common medicines
func DefaultLookup() *Lookup {
	return NewLookup(commonMedicines)
}

var commonMedicines = []Entry{
	{"Augmentin", "bacterial infections, sinusitis, pneumonia, ear infections"},
	{"Azithromycin", "bacterial infections, respiratory infections, skin infections"},
	{"Amoxycillin", "bacterial infections, bronchitis, pneumonia, tonsillitis"},
	{"Paracetamol", "fever, pain, headache"},
	{"Ibuprofen", "pain, inflammation, fever, arthritis"},
	{"Montelukast", "asthma, allergic rhinitis"},
	{"Fexofenadine", "allergies, hay fever, urticaria"},
	{"Cetirizine", "allergies, hay fever, urticaria"},
	{"Hydroxyzine", "anxiety, itching, allergies"},
	{"Levosalbutamol", "asthma, bronchospasm, COPD"},
	{"Ambroxol", "cough, bronchitis, respiratory congestion"},
	{"Pheniramine", "allergies, hay fever, itching"},
	{"Clavulanic Acid", "bacterial infections"},
}

// Len returns the number of entries
func (l *Lookup) Len() int {
	return len(l.entries)
}

// Find returns the usecase for a medicine.
// The name is searched for any key as a substring; failing that, the first
// word of each composition (the active ingredient) is compared to the keys.
func (l *Lookup) Find(name string, compositions []string) (string, bool) {
	lowerName := strings.ToLower(name)
	for _, e := range l.entries {
		if strings.Contains(lowerName, strings.ToLower(e.Key)) {
			return e.Usecase, true
		}
	}

	for _, comp := range compositions {
		fields := strings.Fields(comp)
		if len(fields) == 0 {
			continue
		}
		for _, e := range l.entries {
			if strings.EqualFold(fields[0], e.Key) {
				return e.Usecase, true
			}
		}
	}

	return "", false
}
