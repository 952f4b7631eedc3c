package contact

import (
	"regexp"
	"unicode/utf8"
)

// Kind classifies a validation failure.
type Kind string

const (
	MissingRequiredField Kind = "required"
	FieldTooShort        Kind = "too_short"
	InvalidFormat        Kind = "invalid_format"
)

// Minimum lengths, counted in characters after trimming.
const (
	MinNameLength    = 2
	MinMessageLength = 10
	MinPhoneDigits   = 10
)

// FieldError is a single user-facing validation error bound to one field.
type FieldError struct {
	Field   Field  `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return string(e.Field) + ": " + e.Message
}

// Result is the outcome of validating one submission attempt.
// Valid is true if and only if Errors is empty.
type Result struct {
	Valid  bool
	Errors map[Field]*FieldError
}

// Messages flattens the result into field name → message, the shape used by
// the JSON API.
func (r Result) Messages() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for f, e := range r.Errors {
		out[string(f)] = e.Message
	}
	return out
}

var messages = map[Field]map[Kind]string{
	FieldName: {
		MissingRequiredField: "Name is required",
		FieldTooShort:        "Name must be at least 2 characters",
	},
	FieldEmail: {
		MissingRequiredField: "Email is required",
		InvalidFormat:        "Please enter a valid email address",
	},
	FieldPhone: {
		InvalidFormat: "Please enter a valid phone number",
	},
	FieldService: {
		MissingRequiredField: "Please select a service",
	},
	FieldMessage: {
		MissingRequiredField: "Message is required",
		FieldTooShort:        "Message must be at least 10 characters",
	},
}

// Structural check only: something@something.something, no whitespace and
// no extra '@'. Not an RFC 5322 validator. RE2's \s is ASCII only, so the
// classes also name \v, the Unicode separators and U+FEFF.
var (
	emailRegex      = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)
	phoneCharsRegex = regexp.MustCompile(`^[\d\s\v\p{Z}\x{FEFF}\-+()]+$`)
)

// Validate checks every field of f and collects all errors in one pass.
// Values are trimmed before checking. Validate is a pure function of f.
func Validate(f Fields) Result {
	f = f.Trimmed()
	errs := make(map[Field]*FieldError)

	add := func(field Field, kind Kind) {
		errs[field] = &FieldError{Field: field, Kind: kind, Message: messages[field][kind]}
	}

	switch {
	case f.Name == "":
		add(FieldName, MissingRequiredField)
	case utf8.RuneCountInString(f.Name) < MinNameLength:
		add(FieldName, FieldTooShort)
	}

	switch {
	case f.Email == "":
		add(FieldEmail, MissingRequiredField)
	case !ValidEmail(f.Email):
		add(FieldEmail, InvalidFormat)
	}

	if f.Phone != "" && !ValidPhone(f.Phone) {
		add(FieldPhone, InvalidFormat)
	}

	if f.Service == "" {
		add(FieldService, MissingRequiredField)
	}

	switch {
	case f.Message == "":
		add(FieldMessage, MissingRequiredField)
	case utf8.RuneCountInString(f.Message) < MinMessageLength:
		add(FieldMessage, FieldTooShort)
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidEmail reports whether s has the minimal local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidPhone reports whether s contains only digits, whitespace, '-', '+',
// '(' and ')', with at least MinPhoneDigits digits. Upper bounds and
// grouping are not checked.
func ValidPhone(s string) bool {
	if !phoneCharsRegex.MatchString(s) {
		return false
	}
	return countDigits(s) >= MinPhoneDigits
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
