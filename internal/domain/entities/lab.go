package entities

// Lab is one lab-<N>.md exercise of a course.
type Lab struct {
	CourseName string         `json:"course_name"`
	Chapter    int            `json:"chapter"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	HTML       string         `json:"html"`
	Metadata   map[string]any `json:"metadata"`
	Filename   string         `json:"filename,omitempty"`
}

// LabSummary is the short form used when listing labs across all courses.
type LabSummary struct {
	Chapter  int    `json:"chapter"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
}
