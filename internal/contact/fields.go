// Package contact implements the contact form of the site: field extraction,
// validation, and the per-visitor controller that moves the form between the
// editable view and the timed submission confirmation.
package contact

import (
	"net/url"
	"strings"
)

// Field identifies one input of the contact form.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldService Field = "service"
	FieldMessage Field = "message"
)

// AllFields lists the form fields in display order.
var AllFields = []Field{FieldName, FieldEmail, FieldPhone, FieldService, FieldMessage}

// SlotID returns the identifier of the element that displays this field's
// validation error (e.g. "nameError").
func (f Field) SlotID() string {
	return string(f) + "Error"
}

// Fields holds the values of one submission attempt.
type Fields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// FieldsFromForm extracts the contact fields from a parsed form body.
// Values are returned exactly as submitted.
func FieldsFromForm(form url.Values) Fields {
	return Fields{
		Name:    form.Get(string(FieldName)),
		Email:   form.Get(string(FieldEmail)),
		Phone:   form.Get(string(FieldPhone)),
		Service: form.Get(string(FieldService)),
		Message: form.Get(string(FieldMessage)),
	}
}

// Trimmed returns a copy with surrounding whitespace removed from every value.
func (f Fields) Trimmed() Fields {
	return Fields{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Phone:   strings.TrimSpace(f.Phone),
		Service: strings.TrimSpace(f.Service),
		Message: strings.TrimSpace(f.Message),
	}
}

// Value returns the value of a single field, or "" for an unknown field.
func (f Fields) Value(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldPhone:
		return f.Phone
	case FieldService:
		return f.Service
	case FieldMessage:
		return f.Message
	}
	return ""
}
