package domain

import (
	"time"
)

// JobStatusProcessed is the only terminal status an upload batch reaches;
// jobs are created fully processed and never mutated afterwards.
const JobStatusProcessed = "processed"

// JobPayload is the unit of persistence for one upload batch: the processed
// transactions plus everything derived from them.
type JobPayload struct {
	JobID     string    `json:"job_id" firestore:"-"`
	Status    string    `json:"status" firestore:"status"`
	Files     []string  `json:"files" firestore:"files"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`

	Summary      Summary       `json:"summary" firestore:"summary"`
	Transactions []Transaction `json:"transactions" firestore:"-"`
	Charts       Charts        `json:"charts" firestore:"charts"`

	// Categories lists the category names that were visible to this job.
	Categories  []string `json:"categories" firestore:"categories"`
	Categorized bool     `json:"categorized" firestore:"categorized"`
	Narrative   string   `json:"narrative" firestore:"narrative"`

	// ContentSignature fingerprints the raw (pre-dedup) transaction set of
	// this upload; identical re-uploads resolve to the same job.
	ContentSignature  string `json:"content_signature" firestore:"content_signature"`
	DuplicatesSkipped int    `json:"duplicates_skipped" firestore:"duplicates_skipped"`
	RowsSkipped       int    `json:"rows_skipped" firestore:"rows_skipped"`

	TransactionCount int `json:"transaction_count" firestore:"transaction_count"`
}

// JobMeta is the listing shape for a job: everything except the transaction
// set, which may be large and is stored separately.
type JobMeta struct {
	JobID             string    `json:"job_id" firestore:"-"`
	Status            string    `json:"status" firestore:"status"`
	Files             []string  `json:"files" firestore:"files"`
	CreatedAt         time.Time `json:"created_at" firestore:"created_at"`
	Categorized       bool      `json:"categorized" firestore:"categorized"`
	ContentSignature  string    `json:"content_signature" firestore:"content_signature"`
	DuplicatesSkipped int       `json:"duplicates_skipped" firestore:"duplicates_skipped"`
	TransactionCount  int       `json:"transaction_count" firestore:"transaction_count"`
}

// Summary aggregates an upload's transactions into headline totals.
type Summary struct {
	TotalIncome   float64        `json:"total_income" firestore:"total_income"`
	TotalExpenses float64        `json:"total_expenses" firestore:"total_expenses"`
	NetSavings    float64        `json:"net_savings" firestore:"net_savings"`
	EntityCounts  map[string]int `json:"entity_counts" firestore:"entity_counts"`
}

// Charts is the chart-ready grouping of an upload's transactions.
type Charts struct {
	DailyTrend       DailyTrend       `json:"daily_trend" firestore:"daily_trend"`
	ExpenseBreakdown ExpenseBreakdown `json:"expense_breakdown" firestore:"expense_breakdown"`
	EntityBreakdown  EntityBreakdown  `json:"entity_breakdown" firestore:"entity_breakdown"`
}

// DailyTrend holds parallel arrays of per-day income and expense sums,
// labelled MM/DD and ordered by label.
type DailyTrend struct {
	Labels   []string  `json:"labels" firestore:"labels"`
	Income   []float64 `json:"income" firestore:"income"`
	Expenses []float64 `json:"expenses" firestore:"expenses"`
}

// ExpenseBreakdown holds the top expense categories by absolute amount.
type ExpenseBreakdown struct {
	Labels []string  `json:"labels" firestore:"labels"`
	Values []float64 `json:"values" firestore:"values"`
}

// EntityBreakdown holds transaction counts per entity.
type EntityBreakdown struct {
	Labels []string `json:"labels" firestore:"labels"`
	Values []int    `json:"values" firestore:"values"`
}
