package models

// Header is the fixed column layout of the output workbook
var Header = []string{
	"Username",
	"Full Name",
	"Account Active",
	"Password Last Set Date",
	"Password Last Set Time",
	"Password Expires Date",
	"Password Expires Time",
	"Password Required",
	"Last Logon",
	"Logon Script",
	"Comment",
}

// Record holds the attributes extracted for one directory account.
// Empty strings mean the attribute was not present in the command output.
type Record struct {
	Username            string `json:"username"`
	FullName            string `json:"full_name"`
	AccountActive       string `json:"account_active"`
	PasswordLastSetDate string `json:"password_last_set_date"`
	PasswordLastSetTime string `json:"password_last_set_time"`
	PasswordExpiresDate string `json:"password_expires_date"`
	PasswordExpiresTime string `json:"password_expires_time"`
	PasswordRequired    string `json:"password_required"`
	LastLogon           string `json:"last_logon"`
	LogonScript         string `json:"logon_script"`
	Comment             string `json:"comment"`
}

// Row returns the record's values in Header order
func (r *Record) Row() []string {
	return []string{
		r.Username,
		r.FullName,
		r.AccountActive,
		r.PasswordLastSetDate,
		r.PasswordLastSetTime,
		r.PasswordExpiresDate,
		r.PasswordExpiresTime,
		r.PasswordRequired,
		r.LastLogon,
		r.LogonScript,
		r.Comment,
	}
}
