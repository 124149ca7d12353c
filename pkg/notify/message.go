package notify

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// Subject is the subject line of every notification mail.
const Subject = "Requested NetCDF files"

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// allSuccessful replaces the failure section when every product was
// served.
const allSuccessful = "All the products requested were successfully processed."

// blankRuns matches runs of blank lines so the assembled message keeps
// single blank lines between its sections.
var blankRuns = regexp.MustCompile(`\n\s*\n+`)

// MessageParams carries everything the notification body is built from.
type MessageParams struct {
	// Links are the OPeNDAP links of the served products.
	Links []string

	// Failures are the product names that could not be served.
	Failures []string

	// OperationalKeepDays and TmpKeepDays are quoted in the message so
	// the requester knows how long the files stay available.
	OperationalKeepDays int
	TmpKeepDays         int
}

// BuildMessage assembles the plain-text notification body. Sections for
// which there is nothing to say are left out and runs of blank lines
// are collapsed.
func BuildMessage(p MessageParams) (string, error) {
	var successMessage string
	if len(p.Links) > 0 {
		var buf strings.Builder
		err := templates.ExecuteTemplate(&buf, "success.txt", struct {
			OpendapLinks string
			TmpKeepDays  int
		}{
			OpendapLinks: strings.Join(p.Links, "\n"),
			TmpKeepDays:  p.TmpKeepDays,
		})
		if err != nil {
			return "", fmt.Errorf("render success section: %w", err)
		}
		successMessage = buf.String()
	}

	failureMessage := allSuccessful
	if len(p.Failures) > 0 {
		var buf strings.Builder
		err := templates.ExecuteTemplate(&buf, "failure.txt", struct {
			Failures string
		}{
			Failures: strings.Join(p.Failures, "\n"),
		})
		if err != nil {
			return "", fmt.Errorf("render failure section: %w", err)
		}
		failureMessage = buf.String()
	}

	var buf strings.Builder
	err := templates.ExecuteTemplate(&buf, "message.txt", struct {
		SuccessMessage      string
		FailureMessage      string
		OperationalKeepDays int
	}{
		SuccessMessage:      successMessage,
		FailureMessage:      failureMessage,
		OperationalKeepDays: p.OperationalKeepDays,
	})
	if err != nil {
		return "", fmt.Errorf("render message: %w", err)
	}

	return blankRuns.ReplaceAllString(buf.String(), "\n\n"), nil
}
