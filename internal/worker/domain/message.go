package domain

// JobMessage is one pipeline message from RabbitMQ pointing at a scraped
// job record to enrich and index.
type JobMessage struct {
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}

// Enrichment carries the computed signals written back in one update.
type Enrichment struct {
	TransitScore     *int
	TransitDistanceM *float64
	TransitBus       *bool
	TransitRail      *bool

	ShiftMorning   bool
	ShiftAfternoon bool
	ShiftEvening   bool
	ShiftOvernight bool
	ShiftWeekend   bool
	ShiftSource    string

	SecondChanceTier       string
	SecondChanceScore      float64
	SecondChanceConfidence float64
	SecondChanceSignals    []string
	SecondChanceReasoning  string
}
