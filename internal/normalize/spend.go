package normalize

import (
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// Spend builds a SpendSummary from the analytics endpoint body.
func Spend(body []byte) (*models.SpendSummary, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}
	return spendFrom(Object(v)), nil
}

func spendFrom(root map[string]any) *models.SpendSummary {
	forecast := Object(root["forecast"])

	s := &models.SpendSummary{
		TotalSpend:           Number(root["total_spend"]),
		PriorDaySpend:        Number(first(root, "today_spend", "yesterday_spend")),
		MonthToDateSpend:     Number(root["current_month_spend"]),
		MonthLabel:           String(root["current_month_name"], models.LabelUnknown),
		MonthlyChangePercent: Number(root["monthly_change"]),
		Forecast: models.Forecast{
			SevenDay:  Number(first(forecast, "sevenDay", "seven_day")),
			ThirtyDay: Number(first(forecast, "thirtyDay", "thirty_day")),
		},
		Daily:       []models.DailyPoint{},
		Services:    []models.ServiceCost{},
		Cached:      Bool(root["cached"]),
		GeneratedAt: Time(root["timestamp"]),
	}

	for _, item := range List(root["daily_spend"]) {
		day := Object(item)
		s.Daily = append(s.Daily, models.DailyPoint{
			Label:   String(day["date"], models.LabelNA),
			Date:    String(day["full_date"], ""),
			DayName: String(day["day_name"], ""),
			Amount:  Number(day["amount"]),
		})
	}

	for _, item := range List(root["service_breakdown"]) {
		row := Object(item)
		s.Services = append(s.Services, models.ServiceCost{
			Name:       String(first(row, "service", "name"), models.LabelUnknown),
			Amount:     Number(row["amount"]),
			Percentage: Number(row["percentage"]),
		})
	}

	return s
}
