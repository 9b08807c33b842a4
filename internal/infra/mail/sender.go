package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

//go:embed templates/*.html
var templates embed.FS

var digestTemplate = template.Must(template.ParseFS(templates, "templates/report_digest.html"))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

// SendReportDigest mails a summary of a report snapshot to the managers.
func (s *EmailSender) SendReportDigest(to []string, report *entity.ReportSnapshot) error {
	if len(to) == 0 {
		return nil
	}

	subject, body, err := renderDigest(report)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}

	return nil
}

func renderDigest(report *entity.ReportSnapshot) (string, string, error) {
	r := report.Rollup
	data := ReportDigestData{
		Kind:           string(report.Kind),
		Period:         report.PeriodKey,
		Status:         string(report.Status),
		TotalInquiries: r.TotalInquiries,
		Counts: []digestRow{
			{"Reservations", strconv.Itoa(r.Counts.Reservations)},
			{"Visits", strconv.Itoa(r.Counts.Visits)},
			{"Treatments started", strconv.Itoa(r.Counts.TreatmentsStarted)},
			{"Absent", strconv.Itoa(r.Counts.Absent)},
			{"Closed", strconv.Itoa(r.Counts.Closed)},
			{"Visit rate", fmt.Sprintf("%.1f%%", r.Rates.Visit)},
		},
		Revenue: []digestRow{
			{"Achieved", formatAmount(r.Revenue.Achieved.Amount)},
			{"Potential", formatAmount(r.Revenue.Potential.Amount)},
			{"Lost", formatAmount(r.Revenue.Lost.Amount)},
		},
		ManagerComment: report.ManagerComment,
	}

	var body bytes.Buffer
	if err := digestTemplate.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("failed to render digest template: %w", err)
	}

	subject := fmt.Sprintf("[Consultation report] %s %s", report.Kind, report.PeriodKey)
	return subject, body.String(), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64) + "원"
}
