package types

import "time"

// MaxPayslipBytes caps the raw document size before base64 encoding.
const MaxPayslipBytes = 700 * 1024

// Payslip is a per-user payslip document keyed by pay period. The payload
// is stored base64-encoded; SizeBytes is the raw (decoded) size.
type Payslip struct {
	UserID      string    `json:"user_id"`
	PeriodKey   string    `json:"period_key"` // "2006-01"
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	PayloadB64  string    `json:"payload_b64,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
