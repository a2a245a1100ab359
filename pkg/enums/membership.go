package enums

import (
	"fmt"
	"strings"
)

// MembershipType mirrors the tier attached to a payment processor subscription.
type MembershipType string

const (
	MembershipTypeBasic      MembershipType = "basic"
	MembershipTypePremium    MembershipType = "premium"
	MembershipTypeEnterprise MembershipType = "enterprise"
)

var validMembershipTypes = []MembershipType{
	MembershipTypeBasic,
	MembershipTypePremium,
	MembershipTypeEnterprise,
}

// String implements fmt.Stringer.
func (m MembershipType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipType.
func (m MembershipType) IsValid() bool {
	for _, candidate := range validMembershipTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMembershipType converts raw input into a MembershipType.
func ParseMembershipType(value string) (MembershipType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validMembershipTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership type %q", value)
}

// MembershipStatus mirrors the local view of a subscription lifecycle.
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusCancelled MembershipStatus = "cancelled"
)

var validMembershipStatuses = []MembershipStatus{
	MembershipStatusActive,
	MembershipStatusCancelled,
}

// String implements fmt.Stringer.
func (m MembershipStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipStatus.
func (m MembershipStatus) IsValid() bool {
	for _, candidate := range validMembershipStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}
