package models

import "time"

// SpendSummary is the cost overview of one account.
type SpendSummary struct {
	GeneratedAt time.Time `json:"generated_at"`
	MonthLabel  string    `json:"month_label"`

	Daily    []DailyPoint  `json:"daily"`
	Services []ServiceCost `json:"services"`

	Forecast Forecast `json:"forecast"`

	TotalSpend float64 `json:"total_spend"`
	// PriorDaySpend is the most recent complete day. Provider billing lags by
	// roughly a day, so the backend's "today" figure is really yesterday's.
	PriorDaySpend        float64 `json:"prior_day_spend"`
	MonthToDateSpend     float64 `json:"month_to_date_spend"`
	MonthlyChangePercent float64 `json:"monthly_change_percent"`

	Cached bool `json:"cached"`
}

// Forecast holds projected spend over the next seven and thirty days.
type Forecast struct {
	SevenDay  float64 `json:"seven_day"`
	ThirtyDay float64 `json:"thirty_day"`
}

// DailyPoint is one day of the daily spend series.
type DailyPoint struct {
	Label   string  `json:"label"`
	Date    string  `json:"date"`
	DayName string  `json:"day_name"`
	Amount  float64 `json:"amount"`
}

// ServiceCost is one row of the per-service breakdown. Percentage is computed
// by the backend; rows are not guaranteed to sum to 100.
type ServiceCost struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}
