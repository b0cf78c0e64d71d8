package directory

import (
	"fmt"
	"regexp"
	"strings"

	errs "adquery/pkg/errors"
	"adquery/pkg/models"
)

// field labels as printed by `net user <name> /domain`
const (
	labelFullName        = "Full Name"
	labelAccountActive   = "Account active"
	labelPasswordLastSet = "Password last set"
	labelPasswordExpires = "Password expires"
	labelPasswordReq     = "Password required"
	labelLastLogon       = "Last logon"
	labelLogonScript     = "Logon script"
	labelComment         = "Comment"
)

var fieldPatterns = func() map[string]*regexp.Regexp {
	labels := []string{
		labelFullName,
		labelAccountActive,
		labelPasswordLastSet,
		labelPasswordExpires,
		labelPasswordReq,
		labelLastLogon,
		labelLogonScript,
		labelComment,
	}
	patterns := make(map[string]*regexp.Regexp, len(labels))
	for _, label := range labels {
		// a label followed by padding and a value on the same line
		patterns[label] = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(label) + `[ \t]+(\S.*)$`)
	}
	return patterns
}()

// Parse extracts a Record from the text output of the lookup command.
// It fails only when none of the known labels is present.
func Parse(name, output string) (*models.Record, error) {
	values := make(map[string]string, len(fieldPatterns))
	for label, re := range fieldPatterns {
		if m := re.FindStringSubmatch(output); m != nil {
			values[label] = strings.TrimSpace(m[1])
		}
	}
	if len(values) == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, name, "no recognizable fields in command output", nil)
	}

	record := &models.Record{
		Username:         name,
		FullName:         values[labelFullName],
		AccountActive:    values[labelAccountActive],
		PasswordRequired: values[labelPasswordReq],
		LastLogon:        values[labelLastLogon],
		LogonScript:      values[labelLogonScript],
		Comment:          values[labelComment],
	}
	record.PasswordLastSetDate, record.PasswordLastSetTime = SplitDateTime(values[labelPasswordLastSet])
	record.PasswordExpiresDate, record.PasswordExpiresTime = SplitDateTime(values[labelPasswordExpires])

	return record, nil
}

// SplitDateTime splits "1/2/2024 9:15:00 AM" into its date and time parts at
// the first space. "Never" and values without a space stay whole.
func SplitDateTime(value string) (string, string) {
	if value == "" || value == "Never" {
		return value, ""
	}
	date, clock, ok := strings.Cut(value, " ")
	if !ok {
		return value, ""
	}
	return date, strings.TrimSpace(clock)
}

// describe renders a short, single-line detail for a failed command
func describe(runErr error, stderr []byte) string {
	detail := strings.Join(strings.Fields(string(stderr)), " ")
	switch {
	case runErr != nil && detail != "":
		return fmt.Sprintf("%v: %s", runErr, detail)
	case runErr != nil:
		return runErr.Error()
	case detail != "":
		return detail
	default:
		return "command did not complete successfully"
	}
}
