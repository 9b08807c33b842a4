package mail

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type digestRow struct {
	Label string
	Value string
}

type ReportDigestData struct {
	Kind           string
	Period         string
	Status         string
	TotalInquiries int
	Counts         []digestRow
	Revenue        []digestRow
	ManagerComment string
}
