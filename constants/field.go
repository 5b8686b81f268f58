package constants

// FieldCategory identifies one of the fixed kinds of information the
// pipeline extracts from a title record. The values double as the field
// path prefixes used in extraction results and in the learning store.
type FieldCategory string

const (
	DateActe          FieldCategory = "date_acte"
	Notaire           FieldCategory = "notaire"
	Publication       FieldCategory = "publication_fonciere"
	Parties           FieldCategory = "parties"
	RegimeMatrimonial FieldCategory = "regime_matrimonial"
	ContratMariage    FieldCategory = "contrat_mariage"
	Lots              FieldCategory = "bien.lots"
	ReglementCopro    FieldCategory = "reglement_copropriete"
	Prix              FieldCategory = "prix"
	OriginePropriete  FieldCategory = "origine_propriete"
)

var trackedCategories = []FieldCategory{
	DateActe,
	Notaire,
	Publication,
	Parties,
	RegimeMatrimonial,
	ContratMariage,
	Lots,
	ReglementCopro,
	Prix,
	OriginePropriete,
}

// TrackedCategories returns the categories counted toward overall
// extraction confidence, in display order.
func TrackedCategories() []FieldCategory {
	out := make([]FieldCategory, len(trackedCategories))
	copy(out, trackedCategories)
	return out
}

// IsMultiValued reports whether a category may legitimately resolve to
// several values (a title can list several owners or several lots).
func IsMultiValued(c FieldCategory) bool {
	return c == Parties || c == Lots
}

// IsTracked reports whether c is one of the known categories.
func IsTracked(c FieldCategory) bool {
	for _, t := range trackedCategories {
		if t == c {
			return true
		}
	}
	return false
}
