package entity

import (
	"fmt"
	"strings"
)

// ValueKind tags the closed set of shapes a resolved field value can take.
// Resolution, scoring and anomaly checks switch exhaustively over these
// instead of probing untyped maps.
type ValueKind string

const (
	KindDate     ValueKind = "date"
	KindMoney    ValueKind = "money"
	KindPerson   ValueKind = "person"
	KindFraction ValueKind = "fraction"
	KindLot      ValueKind = "lot"
	KindRef      ValueKind = "reference"
	KindText     ValueKind = "text"
)

// Value is one parsed field value. Fields returns the flattened sub-parts
// keyed by leaf name; a scalar value uses the empty key, meaning the field
// path is the category name itself.
type Value interface {
	Kind() ValueKind
	Fields() map[string]string
	String() string
}

// DateValue is a calendar date normalized to ISO-8601.
type DateValue struct {
	ISO string // "2006-01-02"
	Raw string // source form, kept for provenance display
}

func (v DateValue) Kind() ValueKind           { return KindDate }
func (v DateValue) String() string            { return v.ISO }
func (v DateValue) Fields() map[string]string { return map[string]string{"": v.ISO} }

// MoneyValue is a price with currency and optional spelled-out form.
// Montant keeps the exact source digits (grouping included) so learned
// corrections can match the raw extraction.
type MoneyValue struct {
	Montant   string
	Devise    string
	EnLettres string
}

func (v MoneyValue) Kind() ValueKind { return KindMoney }
func (v MoneyValue) String() string {
	if v.Devise == "" {
		return v.Montant
	}
	return v.Montant + " " + v.Devise
}

func (v MoneyValue) Fields() map[string]string {
	f := map[string]string{"montant": v.Montant}
	if v.Devise != "" {
		f["devise"] = v.Devise
	}
	if v.EnLettres != "" {
		f["en_lettres"] = v.EnLettres
	}
	return f
}

// PersonValue is a natural-person identity block. It also carries notary
// identities, where only Nom and Residence are set.
type PersonValue struct {
	Civilite      string
	Nom           string
	NaissanceISO  string
	LieuNaissance string
	Adresse       string
	CodePostal    string
	Residence     string // notary office city
}

func (v PersonValue) Kind() ValueKind { return KindPerson }
func (v PersonValue) String() string {
	parts := []string{}
	if v.Civilite != "" {
		parts = append(parts, v.Civilite)
	}
	parts = append(parts, v.Nom)
	return strings.Join(parts, " ")
}

func (v PersonValue) Fields() map[string]string {
	f := map[string]string{"nom": v.Nom}
	if v.Civilite != "" {
		f["civilite"] = v.Civilite
	}
	if v.NaissanceISO != "" {
		f["naissance"] = v.NaissanceISO
	}
	if v.LieuNaissance != "" {
		f["lieu_naissance"] = v.LieuNaissance
	}
	if v.Adresse != "" {
		f["adresse"] = v.Adresse
	}
	if v.CodePostal != "" {
		f["code_postal"] = v.CodePostal
	}
	if v.Residence != "" {
		f["residence"] = v.Residence
	}
	return f
}

// FractionValue is a share expressed as numerator/denominator, always
// parsed into typed parts, never kept as an opaque string.
type FractionValue struct {
	Num int64
	Den int64
}

func (v FractionValue) Kind() ValueKind           { return KindFraction }
func (v FractionValue) String() string            { return fmt.Sprintf("%d/%d", v.Num, v.Den) }
func (v FractionValue) Fields() map[string]string { return map[string]string{"": v.String()} }

// LotValue is a co-ownership lot with its share of the common parts.
type LotValue struct {
	Numero int
	Quote  FractionValue
}

func (v LotValue) Kind() ValueKind { return KindLot }
func (v LotValue) String() string {
	if v.Numero > 0 {
		return fmt.Sprintf("lot %d (%s)", v.Numero, v.Quote.String())
	}
	return v.Quote.String()
}

func (v LotValue) Fields() map[string]string {
	f := map[string]string{"quote": v.Quote.String()}
	if v.Numero > 0 {
		f["numero"] = fmt.Sprintf("%d", v.Numero)
	}
	return f
}

// RefValue is a reference to another act or registry entry: a land-registry
// publication, a marriage contract, a co-ownership bylaw, an origin act.
type RefValue struct {
	Service string // registry office, when applicable
	Notaire string // receiving notary, when applicable
	DateISO string
	Volume  string
	Numero  string
	Nature  string // free-form qualifier ("donation", "acquisition", ...)
}

func (v RefValue) Kind() ValueKind { return KindRef }
func (v RefValue) String() string {
	parts := []string{}
	if v.Nature != "" {
		parts = append(parts, v.Nature)
	}
	if v.Notaire != "" {
		parts = append(parts, "Me "+v.Notaire)
	}
	if v.Service != "" {
		parts = append(parts, v.Service)
	}
	if v.DateISO != "" {
		parts = append(parts, v.DateISO)
	}
	if v.Volume != "" {
		parts = append(parts, "vol. "+v.Volume)
	}
	if v.Numero != "" {
		parts = append(parts, "n° "+v.Numero)
	}
	return strings.Join(parts, ", ")
}

func (v RefValue) Fields() map[string]string {
	f := map[string]string{}
	if v.Service != "" {
		f["service"] = v.Service
	}
	if v.Notaire != "" {
		f["notaire"] = v.Notaire
	}
	if v.DateISO != "" {
		f["date"] = v.DateISO
	}
	if v.Volume != "" {
		f["volume"] = v.Volume
	}
	if v.Numero != "" {
		f["numero"] = v.Numero
	}
	if v.Nature != "" {
		f["nature"] = v.Nature
	}
	if len(f) == 0 {
		f[""] = ""
	}
	return f
}

// TextValue is a plain statement with no further structure, such as a
// marital-regime clause.
type TextValue struct {
	Texte string
}

func (v TextValue) Kind() ValueKind           { return KindText }
func (v TextValue) String() string            { return v.Texte }
func (v TextValue) Fields() map[string]string { return map[string]string{"": v.Texte} }
