package enums

import "fmt"

// VariantStatus is the availability of a store variant.
type VariantStatus string

const (
	VariantStatusAvailable VariantStatus = "available"
	VariantStatusReserved  VariantStatus = "reserved"
	VariantStatusSoldOut   VariantStatus = "sold_out"
)

var validVariantStatuses = []VariantStatus{
	VariantStatusAvailable,
	VariantStatusReserved,
	VariantStatusSoldOut,
}

func (v VariantStatus) String() string {
	return string(v)
}

func (v VariantStatus) IsValid() bool {
	for _, candidate := range validVariantStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

func ParseVariantStatus(value string) (VariantStatus, error) {
	for _, candidate := range validVariantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid variant status %q", value)
}
