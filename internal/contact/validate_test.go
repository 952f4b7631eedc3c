package contact

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validFields() Fields {
	return Fields{
		Name:    "Alice",
		Email:   "alice@example.com",
		Phone:   "",
		Service: "tutoring",
		Message: "Please contact me soon",
	}
}

// kinds reduces a result to field → kind for comparison.
func kinds(r Result) map[Field]Kind {
	out := make(map[Field]Kind, len(r.Errors))
	for f, e := range r.Errors {
		out[f] = e.Kind
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   map[Field]Kind
	}{
		{"all valid", validFields(), map[Field]Kind{}},
		{"minimum lengths", Fields{"ab", "a@b.co", "", "tutoring", "1234567890"}, map[Field]Kind{}},
		{"valid phone", Fields{"Alice", "a@b.co", "+1 (555) 123-4567", "tutoring", "Please contact me soon"}, map[Field]Kind{}},
		{"long phone accepted", Fields{"Alice", "a@b.co", "123456789012345", "tutoring", "Please contact me soon"}, map[Field]Kind{}},
		{"short name and message", Fields{"A", "a@b.co", "", "tutoring", "short"}, map[Field]Kind{
			FieldName:    FieldTooShort,
			FieldMessage: FieldTooShort,
		}},
		{"bad email", Fields{"Alice", "not-an-email", "123-456-7890", "tutoring", "Please contact me soon"}, map[Field]Kind{
			FieldEmail: InvalidFormat,
		}},
		{"too few phone digits", Fields{"Alice", "a@b.co", "12345", "tutoring", "Please contact me soon"}, map[Field]Kind{
			FieldPhone: InvalidFormat,
		}},
		{"letters in phone", Fields{"Alice", "a@b.co", "555-CALL-1234567", "tutoring", "Please contact me soon"}, map[Field]Kind{
			FieldPhone: InvalidFormat,
		}},
		{"email without dot", Fields{"Alice", "a@localhost", "", "tutoring", "Please contact me soon"}, map[Field]Kind{
			FieldEmail: InvalidFormat,
		}},
		{"email with space", Fields{"Alice", "a b@c.de", "", "tutoring", "Please contact me soon"}, map[Field]Kind{
			FieldEmail: InvalidFormat,
		}},
		{"email with no-break space", Fields{"Alice", "a\u00a0b@c.de", "", "tutoring", "Please contact me soon"}, map[Field]Kind{
			FieldEmail: InvalidFormat,
		}},
		{"email with em space", Fields{"Alice", "a\u2003b@c.de", "", "tutoring", "Please contact me soon"}, map[Field]Kind{
			FieldEmail: InvalidFormat,
		}},
		{"phone with no-break spaces", Fields{"Alice", "a@b.co", "555\u00a0123\u00a04567", "tutoring", "Please contact me soon"}, map[Field]Kind{}},
		{"whitespace only is empty", Fields{"   ", " \t", "  ", "tutoring", "\n\n"}, map[Field]Kind{
			FieldName:    MissingRequiredField,
			FieldEmail:   MissingRequiredField,
			FieldMessage: MissingRequiredField,
		}},
		{"everything empty", Fields{}, map[Field]Kind{
			FieldName:    MissingRequiredField,
			FieldEmail:   MissingRequiredField,
			FieldService: MissingRequiredField,
			FieldMessage: MissingRequiredField,
		}},
		{"trimmed before length check", Fields{" A ", "a@b.co", "", "tutoring", "  123456789  "}, map[Field]Kind{
			FieldName:    FieldTooShort,
			FieldMessage: FieldTooShort,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.fields)
			if diff := cmp.Diff(tt.want, kinds(got)); diff != "" {
				t.Errorf("Validate() errors mismatch (-want +got):\n%s", diff)
			}
			if got.Valid != (len(tt.want) == 0) {
				t.Errorf("Valid = %v, want %v", got.Valid, len(tt.want) == 0)
			}
		})
	}
}

func TestValidate_SingleEmptyField(t *testing.T) {
	blank := map[Field]func(*Fields){
		FieldName:    func(f *Fields) { f.Name = "" },
		FieldEmail:   func(f *Fields) { f.Email = "" },
		FieldService: func(f *Fields) { f.Service = "" },
		FieldMessage: func(f *Fields) { f.Message = "" },
	}
	for field, empty := range blank {
		t.Run(string(field), func(t *testing.T) {
			f := validFields()
			empty(&f)
			got := Validate(f)
			want := map[Field]Kind{field: MissingRequiredField}
			if diff := cmp.Diff(want, kinds(got)); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	got := Validate(Fields{"A", "nope", "12", "", "short"})
	want := map[string]string{
		"name":    "Name must be at least 2 characters",
		"email":   "Please enter a valid email address",
		"phone":   "Please enter a valid phone number",
		"service": "Please select a service",
		"message": "Message must be at least 10 characters",
	}
	if diff := cmp.Diff(want, got.Messages()); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	in := Fields{"A", "x@y", "123", "", "hi"}
	first := Validate(in)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Validate(in)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1234567890", true},
		{"(555) 123-4567", true},
		{"+44 (20) 7946 0958", true},
		{"123 456 789", false},
		{"123.456.7890", false},
		{"555\u00a0123\u00a04567", true},
		{"555\u2009123\u20094567", true},
		{"555\ufeff1234567", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidPhone(tt.in); got != tt.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
