package types

import "time"

// VacationStatus is the lifecycle state of a vacation request. PENDING is
// the only non-terminal state: a request is decided exactly once.
type VacationStatus string

const (
	VacationPending  VacationStatus = "PENDING"
	VacationApproved VacationStatus = "APPROVED"
	VacationRejected VacationStatus = "REJECTED"
)

// Terminal reports whether the status can no longer change.
func (s VacationStatus) Terminal() bool {
	return s == VacationApproved || s == VacationRejected
}

type VacationRequest struct {
	ID            string         `json:"id"`
	EmployeeID    string         `json:"employee_id"`
	ManagerID     string         `json:"manager_id"`
	StartDate     time.Time      `json:"start_date"`
	EndDate       time.Time      `json:"end_date"`
	Reason        string         `json:"reason,omitempty"`
	Status        VacationStatus `json:"status"`
	DaysRequested int            `json:"days_requested"`
	CreatedAt     time.Time      `json:"created_at"`
	DecisionAt    *time.Time     `json:"decision_at,omitempty"`
}
