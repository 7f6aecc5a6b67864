package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type bookingReceivedEmailData struct {
	baseEmailData
	CustomerName string
	RequestedAt  string
}

type adminReminderEmailData struct {
	baseEmailData
	CustomerName string
	SubmittedAt  string
	WaitingFor   string
}

type customerDelayEmailData struct {
	baseEmailData
	CustomerName string
	RequestedAt  string
}

type bookingApprovedEmailData struct {
	baseEmailData
	CustomerName string
	RequestedAt  string
}

type bookingRejectedEmailData struct {
	baseEmailData
	CustomerName string
	Reason       string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("Monday, January 2, 2006 at 15:04 MST")
}

func formatWaitingFor(submittedAt, now time.Time) string {
	waited := now.Sub(submittedAt).Round(time.Hour)
	if waited < time.Hour {
		return "less than an hour"
	}
	hours := int(waited.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
