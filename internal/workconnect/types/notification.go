package types

import "time"

// Notification types emitted by the workflows. The UI layer keys its
// click-through behavior on these tags.
const (
	NotifVacationNewRequest = "VACATION_NEW_REQUEST"
	NotifVacationApproved   = "VACATION_APPROVED"
	NotifVacationRejected   = "VACATION_REJECTED"
	NotifAttendanceAutoEnd  = "ATTENDANCE_AUTO_ENDED"
	NotifPayslipUploaded    = "PAYSLIP_UPLOADED"
)

// Notification is a record owned by its recipient. It is created inside the
// same transaction as the state change it announces, and deleted (not
// archived) when the recipient acts on it.
type Notification struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
