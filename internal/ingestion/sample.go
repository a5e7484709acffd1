package ingestion

// SampleRecords is the corpus loaded when no source is configured.
func SampleRecords() []Record {
	return []Record{
		{
			ID:      1,
			Title:   "Quarterly Board Minutes",
			Content: "Alice Smith presented the budget. Approved $2.5M for the data center on 2024-01-15.",
			Sender:  "board@example.com",
		},
		{
			ID:      2,
			Title:   "Vendor Payment Confirmation",
			Content: "Wire transfer of $500,000 to Harbor Logistics cleared on 2024-02-03. Contact billing@harbor.example.",
			Sender:  "finance@example.com",
		},
		{
			ID:      3,
			Title:   "Travel Itinerary",
			Content: "Bob Jones flies to Paris on 2024-03-10 and returns to London two days later.",
			Sender:  "travel@example.com",
		},
		{
			ID:      4,
			Title:   "Incident Report",
			Content: "Search latency rose 40% after the index rebuild. Rollback completed within 15 minutes.",
			Sender:  "oncall@example.com",
		},
		{
			ID:      5,
			Title:   "Hiring Plan",
			Content: "Open 12 engineering roles with a combined budget of 1.8 million USD for the fiscal year.",
			Sender:  "people@example.com",
		},
	}
}
