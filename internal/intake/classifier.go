package intake

import (
	"context"
	"strings"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// Classification is a classifier's proposal for one raw transaction.
type Classification struct {
	Category    string
	AccountCode string
	Confidence  float64
}

// Classifier proposes the account a raw transaction belongs to. Model
// backed classifiers live outside this module.
type Classifier interface {
	Classify(ctx context.Context, raw model.RawTransaction) (Classification, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, raw model.RawTransaction) (Classification, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, raw model.RawTransaction) (Classification, error) {
	return f(ctx, raw)
}

type keywordRule struct {
	keyword  string
	code     string
	category string
}

var revenueKeywords = []string{"sale", "revenue", "income", "payment received"}

var expenseRules = []keywordRule{
	{"rent", "5300", "Rent Expense"},
	{"utility", "5400", "Utilities Expense"},
	{"salary", "5200", "Salaries & Wages"},
	{"marketing", "5500", "Marketing Expense"},
	{"office", "5100", "Operating Expenses"},
	{"supply", "5100", "Operating Expenses"},
}

// KeywordClassifier matches description keywords against the default
// chart. Anything unmatched is Uncategorized under the default expense
// account.
type KeywordClassifier struct{}

// Classify never fails.
func (KeywordClassifier) Classify(_ context.Context, raw model.RawTransaction) (Classification, error) {
	desc := strings.ToLower(raw.Description)
	for _, kw := range revenueKeywords {
		if strings.Contains(desc, kw) {
			return Classification{Category: "Sales Revenue", AccountCode: "4000", Confidence: 0.6}, nil
		}
	}
	for _, r := range expenseRules {
		if strings.Contains(desc, r.keyword) {
			return Classification{Category: r.category, AccountCode: r.code, Confidence: 0.6}, nil
		}
	}
	return Classification{Category: "Uncategorized", AccountCode: DefaultAccount, Confidence: 0.3}, nil
}
