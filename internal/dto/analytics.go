package dto

import "time"

type DashboardStats struct {
	TotalUsers          int64   `json:"totalUsers"`
	ActiveSubscriptions int64   `json:"activeSubscriptions"`
	MonthlyRevenue      float64 `json:"monthlyRevenue"`
	NewSignups          int64   `json:"newSignups"`
	TotalSessions       int64   `json:"totalSessions"`
	UserGrowth          float64 `json:"userGrowth"`
	RevenueGrowth       float64 `json:"revenueGrowth"`
}

type ActivityItem struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type DashboardResponse struct {
	Stats          DashboardStats `json:"stats"`
	RecentActivity []ActivityItem `json:"recentActivity"`
}

type AnalyticsOverview struct {
	TotalUsers          int64   `json:"totalUsers"`
	ActiveSubscriptions int64   `json:"activeSubscriptions"`
	TotalRevenue        float64 `json:"totalRevenue"`
	MonthlyRevenue      float64 `json:"monthlyRevenue"`
	TotalSessions       int64   `json:"totalSessions"`
	RecentUsers         int64   `json:"recentUsers"`
	ConversionRate      float64 `json:"conversionRate"`
	ARPU                float64 `json:"arpu"`
	CustomerRetention   float64 `json:"customerRetention"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type TopPlan struct {
	PlanName        string  `json:"planName"`
	SubscriberCount int64   `json:"subscriberCount"`
	Revenue         float64 `json:"revenue"`
}

type RecentTransaction struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
}

type AnalyticsResponse struct {
	Overview           AnalyticsOverview   `json:"overview"`
	UsersByStatus      []StatusCount       `json:"usersByStatus"`
	TopPlans           []TopPlan           `json:"topPlans"`
	RecentTransactions []RecentTransaction `json:"recentTransactions"`
}
