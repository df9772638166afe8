package quote

import (
	"github.com/chid93/next-gen-prf/internal/model"
)

// FieldName identifies a validated input on a quote tab.
type FieldName string

// Quote tab inputs.
const (
	FieldInterest FieldName = "interest"
	FieldAcres    FieldName = "acres"
)

// FieldSpec describes one input's limit and display label.
type FieldSpec struct {
	Name  FieldName
	Label string
	Max   int64
	Unit  string
}

// Built-in inputs.
var (
	InsurableInterest = FieldSpec{Name: FieldInterest, Label: "Insurable Interest", Max: 100, Unit: "%"}
	InsuredAcres      = FieldSpec{Name: FieldAcres, Label: "Acres", Max: 200000, Unit: ""}
)

// Specs lists the inputs every tab carries, in display order.
var Specs = []FieldSpec{InsurableInterest, InsuredAcres}

// SpecFor returns the spec for name.
func SpecFor(name FieldName) (FieldSpec, bool) {
	for _, s := range Specs {
		if s.Name == name {
			return s, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks raw against this input's limit.
func (s FieldSpec) Validate(raw string) model.FieldError {
	return Validate(raw, s.Max, s.Unit)
}

func committed(ts model.TabState, name FieldName) (string, model.FieldError) {
	switch name {
	case FieldInterest:
		return ts.Interest, ts.InterestError
	case FieldAcres:
		return ts.Acres, ts.AcresError
	}
	return "", model.NoError
}

func withCommitted(ts model.TabState, name FieldName, value string, fe model.FieldError) model.TabState {
	switch name {
	case FieldInterest:
		ts.Interest, ts.InterestError = value, fe
	case FieldAcres:
		ts.Acres, ts.AcresError = value, fe
	}
	return ts
}
