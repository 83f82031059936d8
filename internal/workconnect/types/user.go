package types

import "time"

// User is the subset of the profile record this service owns: organization
// linkage plus the vacation accrual fields mutated by the workflows.
type User struct {
	ID                   string       `json:"id"`
	FullName             string       `json:"full_name"`
	CompanyID            string       `json:"company_id"`
	ManagerID            string       `json:"manager_id,omitempty"`
	VacationDaysPerMonth float64      `json:"vacation_days_per_month"`
	VacationBalance      float64      `json:"vacation_balance"`
	LastAccrualDate      string       `json:"last_accrual_date,omitempty"` // "2006-01-02"
	JoinDate             time.Time    `json:"join_date"`
	ActiveShift          *ActiveShift `json:"active_shift,omitempty"`
}
