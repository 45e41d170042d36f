package enums

import "fmt"

// SaleDecision is the store owner's answer to a pending sale.
type SaleDecision string

const (
	SaleDecisionAccept SaleDecision = "accept"
	SaleDecisionReject SaleDecision = "reject"
)

func (d SaleDecision) IsValid() bool {
	return d == SaleDecisionAccept || d == SaleDecisionReject
}

func ParseSaleDecision(value string) (SaleDecision, error) {
	d := SaleDecision(value)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid sale decision %q", value)
	}
	return d, nil
}
