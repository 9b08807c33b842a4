package entity

import (
	"context"
	"strings"
	"time"
)

// LegacyRegion is the structured region object of first-generation records.
type LegacyRegion struct {
	Province string `bson:"province"`
	City     string `bson:"city,omitempty"`
}

type LegacyCallback struct {
	ID                        string `bson:"id"`
	Date                      string `bson:"date"`
	Time                      string `bson:"time,omitempty"`
	Status                    string `bson:"status"`
	Notes                     string `bson:"notes,omitempty"`
	ResultNotes               string `bson:"resultNotes,omitempty"`
	IsVisitManagementCallback bool   `bson:"isVisitManagementCallback,omitempty"`
	CompletedAt               string `bson:"completedAt,omitempty"`
	CreatedAt                 string `bson:"createdAt,omitempty"`
}

type LegacyEstimateInfo struct {
	RegularPrice  float64 `bson:"regularPrice"`
	DiscountPrice float64 `bson:"discountPrice"`
}

type LegacyTreatmentConsent struct {
	TreatmentStartDate string `bson:"treatmentStartDate,omitempty"`
}

type LegacyPostVisitConsultation struct {
	EstimateInfo         *LegacyEstimateInfo     `bson:"estimateInfo,omitempty"`
	TreatmentContent     string                  `bson:"treatmentContent,omitempty"`
	TreatmentConsentInfo *LegacyTreatmentConsent `bson:"treatmentConsentInfo,omitempty"`
}

type LegacyConsultation struct {
	EstimatedAmount  float64 `bson:"estimatedAmount"`
	ConsultationDate string  `bson:"consultationDate,omitempty"`
	TreatmentPlan    string  `bson:"treatmentPlan,omitempty"`
}

// LegacyPatient mirrors the first-generation document: Korean status labels,
// string timestamps and a nested region object.
type LegacyPatient struct {
	ID                    string                       `bson:"_id"`
	Name                  string                       `bson:"name"`
	PhoneNumber           string                       `bson:"phoneNumber"`
	Age                   int                          `bson:"age,omitempty"`
	Region                *LegacyRegion                `bson:"region,omitempty"`
	ReferralSource        string                       `bson:"referralSource,omitempty"`
	Status                string                       `bson:"status"`
	CallbackHistory       []LegacyCallback             `bson:"callbackHistory,omitempty"`
	NextCallbackDate      string                       `bson:"nextCallbackDate,omitempty"`
	ReservationDate       string                       `bson:"reservationDate,omitempty"`
	ReservationTime       string                       `bson:"reservationTime,omitempty"`
	Consultation          *LegacyConsultation          `bson:"consultation,omitempty"`
	VisitConfirmed        bool                         `bson:"visitConfirmed,omitempty"`
	VisitDate             string                       `bson:"visitDate,omitempty"`
	PostVisitStatus       string                       `bson:"postVisitStatus,omitempty"`
	PostVisitConsultation *LegacyPostVisitConsultation `bson:"postVisitConsultation,omitempty"`
	TreatmentStartDate    string                       `bson:"treatmentStartDate,omitempty"`
	TreatmentCost         float64                      `bson:"treatmentCost,omitempty"`
	IsCompleted           bool                         `bson:"isCompleted,omitempty"`
	CompletedAt           string                       `bson:"completedAt,omitempty"`
	CallInDate            string                       `bson:"callInDate"`
	CreatedAt             string                       `bson:"createdAt,omitempty"`
	UpdatedAt             string                       `bson:"updatedAt,omitempty"`
	LastModifiedAt        string                       `bson:"lastModifiedAt,omitempty"`
}

// AdaptIssue records a value the adapter had to replace with a fallback.
type AdaptIssue struct {
	Field string
	Value string
}

// ToPatient converts a legacy record into the current model. Unknown enum
// values are replaced with conservative defaults and reported as issues.
func (l *LegacyPatient) ToPatient(loc *time.Location) (*Patient, []AdaptIssue) {
	var issues []AdaptIssue

	p := &Patient{
		ID:             l.ID,
		Name:           strings.TrimSpace(l.Name),
		Phone:          strings.TrimSpace(l.PhoneNumber),
		Age:            l.Age,
		ReferralSource: l.ReferralSource,
		VisitConfirmed: l.VisitConfirmed,
		TreatmentCost:  l.TreatmentCost,
		IsCompleted:    l.IsCompleted,
	}
	if l.Region != nil {
		p.Region = strings.TrimSpace(strings.TrimSpace(l.Region.Province) + " " + strings.TrimSpace(l.Region.City))
	}

	status, ok := ParseConsultStatus(l.Status)
	if !ok {
		issues = append(issues, AdaptIssue{Field: "status", Value: l.Status})
	}
	p.Status = status

	pv, ok := ParsePostVisitStatus(l.PostVisitStatus)
	if !ok {
		issues = append(issues, AdaptIssue{Field: "postVisitStatus", Value: l.PostVisitStatus})
	}
	if p.VisitConfirmed {
		p.PostVisitStatus = pv
	}

	p.NextCallbackDate = adaptDate(l.NextCallbackDate, "nextCallbackDate", &issues)
	p.ReservationDate = adaptDate(l.ReservationDate, "reservationDate", &issues)
	p.ReservationTime = l.ReservationTime
	p.VisitDate = adaptDate(l.VisitDate, "visitDate", &issues)
	p.CallInDate = adaptDate(l.CallInDate, "callInDate", &issues)

	if c := l.Consultation; c != nil {
		p.Consultation = &ConsultationInfo{
			EstimatedAmount: c.EstimatedAmount,
			TreatmentPlan:   c.TreatmentPlan,
			ConsultedAt:     adaptDate(c.ConsultationDate, "consultation.consultationDate", &issues),
		}
	}

	p.TreatmentStartDate = adaptDate(l.TreatmentStartDate, "treatmentStartDate", &issues)
	if pvc := l.PostVisitConsultation; pvc != nil {
		p.PostVisitConsultation = &PostVisitConsultation{TreatmentContent: pvc.TreatmentContent}
		if e := pvc.EstimateInfo; e != nil {
			p.PostVisitConsultation.Estimate = Estimate{RegularPrice: e.RegularPrice, DiscountPrice: e.DiscountPrice}
		}
		if tc := pvc.TreatmentConsentInfo; tc != nil && p.TreatmentStartDate.IsZero() {
			p.TreatmentStartDate = adaptDate(tc.TreatmentStartDate, "treatmentConsentInfo.treatmentStartDate", &issues)
		}
	}

	p.CreatedAt = parseTimestamp(l.CreatedAt, loc)
	p.LastModifiedAt = parseTimestamp(l.LastModifiedAt, loc)
	if p.LastModifiedAt.IsZero() {
		p.LastModifiedAt = parseTimestamp(l.UpdatedAt, loc)
	}
	if t := parseTimestamp(l.CompletedAt, loc); !t.IsZero() {
		p.CompletedAt = &t
	}

	p.CallbackHistory = make([]CallbackEntry, 0, len(l.CallbackHistory))
	for _, lc := range l.CallbackHistory {
		st, ok := ParseCallbackStatus(lc.Status)
		if !ok {
			issues = append(issues, AdaptIssue{Field: "callbackHistory.status", Value: lc.Status})
		}
		entry := CallbackEntry{
			ID:                        lc.ID,
			ScheduledDate:             adaptDate(lc.Date, "callbackHistory.date", &issues),
			ScheduledTime:             lc.Time,
			Status:                    st,
			IsVisitManagementCallback: lc.IsVisitManagementCallback,
			CreatedAt:                 parseTimestamp(lc.CreatedAt, loc),
			Notes:                     strings.TrimSpace(strings.Join([]string{lc.Notes, lc.ResultNotes}, "\n")),
		}
		if t := parseTimestamp(lc.CompletedAt, loc); !t.IsZero() {
			entry.CompletedAt = &t
		}
		p.CallbackHistory = append(p.CallbackHistory, entry)
	}

	p.Stage, _ = MapLegacyStatus(l.Status, l.VisitConfirmed, l.PostVisitStatus, l.IsCompleted)
	return p, issues
}

func adaptDate(s, field string, issues *[]AdaptIssue) Date {
	d, err := ParseDate(s)
	if err != nil {
		*issues = append(*issues, AdaptIssue{Field: field, Value: s})
		return ""
	}
	return d
}

func parseTimestamp(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", DateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

type LegacyPatientSource interface {
	FindAllLegacy(ctx context.Context) ([]LegacyPatient, error)
}
