package domain

import "strings"

// Issuer is a bank returned by an issuer lookup.
type Issuer struct {
	BankName string `json:"bankName"`
	BIC      string `json:"bic"`
	BLZ      string `json:"blz"`
}

// Matches reports whether query is contained in the bank name, BIC or BLZ,
// ignoring case.
func (i Issuer) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(i.BankName), q) ||
		strings.Contains(strings.ToLower(i.BIC), q) ||
		strings.Contains(strings.ToLower(i.BLZ), q)
}

// FilterIssuers returns the issuers matching query, in order.
func FilterIssuers(issuers []Issuer, query string) []Issuer {
	filtered := make([]Issuer, 0, len(issuers))
	for _, issuer := range issuers {
		if issuer.Matches(query) {
			filtered = append(filtered, issuer)
		}
	}
	return filtered
}
