package models

// Campaign is a named email group tied to one class in the timetable.
// Name is case-sensitive and must match a timetable row exactly.
type Campaign struct {
	Name           string   `yaml:"name" json:"name"`
	SubjectTitle   string   `yaml:"subject" json:"subject"`
	BodyPath       string   `yaml:"body_path" json:"body_path"`
	TargetPrograms []string `yaml:"target_programs" json:"target_programs"`
}

// Recipient is one (email, program) enrollment taken from the roster.
// A roster row with several emails or programs produces one Recipient
// per combination.
type Recipient struct {
	Email   string `json:"email"`
	Program string `json:"program"`
}
