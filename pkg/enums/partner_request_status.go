package enums

import "fmt"

// PartnerRequestStatus tracks a partner application through review.
type PartnerRequestStatus string

const (
	PartnerRequestPending  PartnerRequestStatus = "PENDING"
	PartnerRequestApproved PartnerRequestStatus = "APPROVED"
	PartnerRequestRejected PartnerRequestStatus = "REJECTED"
)

var validPartnerRequestStatuses = []PartnerRequestStatus{
	PartnerRequestPending,
	PartnerRequestApproved,
	PartnerRequestRejected,
}

// String implements fmt.Stringer.
func (p PartnerRequestStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PartnerRequestStatus.
func (p PartnerRequestStatus) IsValid() bool {
	for _, candidate := range validPartnerRequestStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartnerRequestStatus converts raw input into a PartnerRequestStatus.
func ParsePartnerRequestStatus(value string) (PartnerRequestStatus, error) {
	for _, candidate := range validPartnerRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid partner request status %q", value)
}
