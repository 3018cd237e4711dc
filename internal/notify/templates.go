package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

var emailTemplates = template.Must(template.New("emails").Option("missingkey=error").Parse(`
{{define "practitioner_booking_subject"}}New appointment request: {{.ServiceLabel}} on {{.FormattedDate}} at {{.SelectedTime}}{{end}}
{{define "practitioner_booking_body"}}A new appointment request was submitted from the website.

Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}
Service: {{.ServiceLabel}}
Date: {{.FormattedDate}}
Time: {{.SelectedTime}}
{{if .RequestID}}Reference: {{.RequestID}}
{{end}}{{if .Description}}
Message:
{{.Description}}
{{end}}
Please confirm the slot with the client.{{end}}
{{define "client_booking_subject"}}We received your appointment request{{end}}
{{define "client_booking_body"}}Hello {{.Name}},

Thank you for reaching out. Your request for {{.ServiceLabel}} on {{.FormattedDate}} at {{.SelectedTime}} has been received.
{{.PractitionerName}} will contact you shortly to confirm the appointment.

Warm regards,
{{.PractitionerName}}{{end}}
{{define "ebook_subject"}}Your free eBook: 10 Steps to Emotional Balance{{end}}
{{define "ebook_body"}}Hello {{.Name}},

Thank you for your interest in 10 Steps to Emotional Balance.
{{if .DownloadURL}}You can download your copy here:
{{.DownloadURL}}
{{else}}Your copy will follow in a separate email shortly.
{{end}}
Warm regards,
{{.PractitionerName}}{{end}}
`))

// render executes one named template from emailTemplates.
func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return buf.String(), nil
}
