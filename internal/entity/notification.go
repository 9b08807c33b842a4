package entity

type ActionReason string

const (
	ReasonOverdue        ActionReason = "overdue"
	ReasonDueToday       ActionReason = "due_today"
	ReasonReminderNeeded ActionReason = "reminder_needed"
)

// ActionNotification tells a counselor that a patient needs attention today.
type ActionNotification struct {
	PatientID string       `json:"patient_id"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	Reason    ActionReason `json:"reason"`
	Phase     Phase        `json:"phase"`
	Date      Date         `json:"date"`
	DueDate   Date         `json:"due_date,omitempty"`
}

// DedupKey identifies a notification within its day.
func (n ActionNotification) DedupKey() string {
	return string(n.Date) + "|" + n.PatientID + "|" + string(n.Reason)
}

type ReportRefreshRequest struct {
	ReportID    string `json:"report_id"`
	RequestedBy string `json:"requested_by,omitempty"`
}
