package domain

import (
	"strings"

	"enrollment_crm_backend/platform/phone"
)

const minPhoneDigits = 8

// HasValidContact reports whether at least one contact method is
// syntactically usable: an email containing "@" or a phone number with at
// least eight digits once formatting is stripped.
func HasValidContact(email, phoneNumber string) bool {
	if strings.Contains(email, "@") {
		return true
	}
	return phone.DigitCount(phoneNumber) >= minPhoneDigits
}

// EligibleForDeal decides whether a lead qualifies for automatic deal
// creation. Ineligible leads stay out of the pipeline and surface with the
// incomplete label until an agent fixes their data.
func EligibleForDeal(lead Lead) bool {
	if strings.TrimSpace(lead.Name) == "" {
		return false
	}
	if strings.TrimSpace(lead.DesiredCourse) == "" {
		return false
	}
	if _, ok := NormalizeClassification(lead.Classification); !ok {
		return false
	}
	return HasValidContact(lead.Email, lead.Phone)
}
