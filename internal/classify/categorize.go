package classify

import (
	"rostercal/internal/model"
)

// Categorize buckets records for the categorized views. A record with any
// evaluation column lands in EPBEvaluations only; an overdue EPB/EPR in
// OverdueEPB only; otherwise training and voucher checks are independent and
// a record may land in both.
func Categorize(recs []model.ClassifiedRecord) model.Categories {
	cats := model.Categories{
		Training:        []model.ClassifiedRecord{},
		EPBEvaluations:  []model.ClassifiedRecord{},
		OverdueVouchers: []model.ClassifiedRecord{},
		OverdueEPB:      []model.ClassifiedRecord{},
	}

	for _, r := range recs {
		if r.HasPassthrough() {
			cats.EPBEvaluations = append(cats.EPBEvaluations, r)
			continue
		}

		search := searchText(r.Title, r.Type, r.Notes)
		if IsOverdueEPB(search) {
			cats.OverdueEPB = append(cats.OverdueEPB, r)
			continue
		}

		if TrainingKeywords.In(search) {
			cats.Training = append(cats.Training, r)
		}
		if VoucherKeywords.In(search) {
			cats.OverdueVouchers = append(cats.OverdueVouchers, r)
		}
	}
	return cats
}

// IsOverdueEPB reports whether an "overdue" token co-occurs with an EPB/EPR
// token, in either order. search must be lowercase.
func IsOverdueEPB(search string) bool {
	return OverdueKeywords.In(search) && EPBKeywords.In(search)
}
