package site

// Service is one option of the contact form's service selector.
type Service struct {
	Value   string
	Label   string
	Summary string
}

// Services lists the selectable services in display order. The form's
// empty placeholder option is not part of the list.
var Services = []Service{
	{
		Value:   "tutoring",
		Label:   "Tutoring Services",
		Summary: "One-to-one and small-group tutoring across secondary and tertiary subjects.",
	},
	{
		Value:   "ict-training",
		Label:   "ICT Training",
		Summary: "Practical courses in digital literacy, office productivity and programming.",
	},
	{
		Value:   "consulting",
		Label:   "Educational Consulting",
		Summary: "Curriculum design, technology integration and institutional strategy.",
	},
	{
		Value:   "research-support",
		Label:   "Research Support",
		Summary: "Guidance on research design, data analysis and academic writing.",
	},
	{
		Value:   "other",
		Label:   "Other",
		Summary: "Tell us what you need and we will find the right fit.",
	},
}
