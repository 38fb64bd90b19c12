package classify

import "strings"

// Keywords is a substring keyword set matched against lowercased text.
type Keywords []string

// In reports whether any keyword occurs in s. s must already be lowercase.
func (k Keywords) In(s string) bool {
	for _, w := range k {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var (
	// GeneralItemKeywords mark administrative entries: deadlines, statuses
	// and reminders rather than scheduled appointments.
	GeneralItemKeywords = Keywords{
		"overdue",
		"pending",
		"needs attention",
		"past due",
		"due date",
		"status",
		"complete",
		"incomplete",
		"missing",
		"required",
		"outstanding",
		"outstanding epb",
		"outstanding training",
		"outstanding voucher",
		"needs review",
		"needs completion",
		"action required",
		"follow up",
		"reminder",
	}

	TrainingKeywords = Keywords{
		"training",
		"cdc",
		"course",
		"certification",
		"qualification",
		"refresher",
		"overdue training",
	}

	VoucherKeywords = Keywords{
		"voucher",
		"gtc",
		"travel",
		"overdue voucher",
		"overdue travel",
	}

	OverdueKeywords = Keywords{"overdue"}

	EPBKeywords = Keywords{"epb", "epr"}
)
