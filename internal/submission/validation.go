package submission

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/mdouchement/lostfound/pkg/liblf"
)

// MinPasswordLength is the minimal length of a registration password.
const MinPasswordLength = 6

// EmailPattern is the syntax accepted for emails.
var EmailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// FieldErrors are validation errors keyed by form field.
type FieldErrors map[string]string

// Add records the message for the field, keeping the first one.
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// Empty returns true if there is no error.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Err returns nil when there is no error.
func (fe FieldErrors) Err() error {
	if fe.Empty() {
		return nil
	}
	return fe
}

// Error implements error interface.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, fmt.Sprintf("%s: %s", field, fe[field]))
	}
	return strings.Join(messages, "; ")
}

// ValidateItem checks an item report.
func ValidateItem(r liblf.ItemReport, now time.Time) FieldErrors {
	fe := FieldErrors{}

	postType(fe, r.PostType)
	required(fe, "title", "Title", r.Title)
	required(fe, "description", "Description", r.Description)
	required(fe, "category", "Category", r.Category)
	required(fe, "location", "Location", r.Location)
	required(fe, "thumbnail", "Thumbnail", r.Thumbnail)
	required(fe, "contactName", "Contact name", r.ContactName)
	required(fe, "contactEmail", "Contact email", r.ContactEmail)

	email(fe, "contactEmail", r.ContactEmail)
	link(fe, "thumbnail", r.Thumbnail)
	notFuture(fe, "date", r.Date, now)
	return fe
}

// ValidateItemPatch checks the fields set by an item update.
func ValidateItemPatch(p liblf.ItemPatch, now time.Time) FieldErrors {
	fe := FieldErrors{}
	if p.Empty() {
		fe.Add("item", "Nothing to update")
		return fe
	}

	if p.PostType != nil {
		postType(fe, *p.PostType)
	}
	if p.Title != nil {
		required(fe, "title", "Title", *p.Title)
	}
	if p.Description != nil {
		required(fe, "description", "Description", *p.Description)
	}
	if p.Category != nil {
		required(fe, "category", "Category", *p.Category)
	}
	if p.Location != nil {
		required(fe, "location", "Location", *p.Location)
	}
	if p.Thumbnail != nil {
		required(fe, "thumbnail", "Thumbnail", *p.Thumbnail)
		link(fe, "thumbnail", *p.Thumbnail)
	}
	if p.Date != nil {
		notFuture(fe, "date", *p.Date, now)
	}
	return fe
}

// ValidateRecovery checks a recovery report.
func ValidateRecovery(r liblf.Recovery, now time.Time) FieldErrors {
	fe := FieldErrors{}

	required(fe, "recoveredLocation", "Recovered location", r.RecoveredLocation)
	if r.RecoveredDate.IsZero() {
		fe.Add("recoveredDate", "Recovered date is required")
	}
	notFuture(fe, "recoveredDate", r.RecoveredDate, now)

	if r.RecoveredBy.Email != "" && strings.EqualFold(r.RecoveredBy.Email, r.OriginalOwner.Email) {
		fe.Add("recoveredBy", "You cannot recover your own item")
	}
	return fe
}

// ValidatePassword returns all the password rules not satisfied by the given password.
func ValidatePassword(password string) []string {
	var upper, lower bool
	for _, r := range password {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
	}

	var failures []string
	if len([]rune(password)) < MinPasswordLength {
		failures = append(failures, fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}
	if !upper {
		failures = append(failures, "Password must contain at least one uppercase letter")
	}
	if !lower {
		failures = append(failures, "Password must contain at least one lowercase letter")
	}
	return failures
}

// ValidateRegistration checks a registration form.
func ValidateRegistration(name, address, password, photoURL string) FieldErrors {
	fe := FieldErrors{}

	required(fe, "name", "Name", name)
	required(fe, "email", "Email", address)
	email(fe, "email", address)
	if failures := ValidatePassword(password); len(failures) > 0 {
		fe.Add("password", strings.Join(failures, ", "))
	}
	if photoURL != "" {
		link(fe, "photoURL", photoURL)
	}
	return fe
}

func required(fe FieldErrors, field, label, value string) {
	if strings.TrimSpace(value) == "" {
		fe.Add(field, label+" is required")
	}
}

func email(fe FieldErrors, field, value string) {
	if value != "" && !EmailPattern.MatchString(value) {
		fe.Add(field, "Invalid email address")
	}
}

func link(fe FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}

	u, err := url.ParseRequestURI(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		fe.Add(field, "Invalid URL")
	}
}

func postType(fe FieldErrors, value string) {
	switch value {
	case liblf.PostTypeLost, liblf.PostTypeFound:
	default:
		fe.Add("postType", "Type must be lost or found")
	}
}

func notFuture(fe FieldErrors, field string, date liblf.Date, now time.Time) {
	if !date.IsZero() && date.After(now) {
		fe.Add(field, "Date cannot be in the future")
	}
}
