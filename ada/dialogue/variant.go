package dialogue

import (
	"fmt"
	"slices"
	"strings"
)

// Variant names the set of fields a reservation must carry before confirmation.
type Variant struct {
	Name     string
	Required []Field
}

var (
	VariantFull = Variant{
		Name:     "full",
		Required: []Field{FieldName, FieldSurname, FieldDate, FieldTime, FieldReservationType, FieldPartySize},
	}
	VariantBasic = Variant{
		Name:     "basic",
		Required: []Field{FieldName, FieldDate, FieldTime, FieldPartySize},
	}
)

func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantFull.Name:
		return VariantFull, nil
	case VariantBasic.Name:
		return VariantBasic, nil
	}
	return Variant{}, fmt.Errorf("unknown dialogue variant %q", name)
}

func (v Variant) Requires(f Field) bool {
	return slices.Contains(v.Required, f)
}
