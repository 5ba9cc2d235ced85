package dto

import "pem-system/pkg/types"

type DashboardDTO struct {
	Stats        types.DashboardStats          `json:"stats"`
	ByLocation   []types.DashboardCountByGroup `json:"by_location"`
	LastActivity []types.DashboardActivityItem `json:"last_activity"`
}
