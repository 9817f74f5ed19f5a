package models

// Routing keys of the domain events published to the exchange.
const (
	EventProjectCreated   = "project.created"
	EventProjectSubmitted = "project.submitted"
	EventProjectGraded    = "project.graded"
	EventCourseEnrolled   = "course.enrolled"
)

type ProjectCreatedEvent struct {
	ProjectID string `json:"project_id"`
	CreatorID string `json:"creator_id"`
	Title     string `json:"title"`
	Deadline  int64  `json:"deadline"`
	Timestamp int64  `json:"timestamp"`
}

type ProjectSubmittedEvent struct {
	ProjectID    string `json:"project_id"`
	SubmissionID string `json:"submission_id"`
	SubmittedBy  string `json:"submitted_by"`
	Link         string `json:"link"`
	Timestamp    int64  `json:"timestamp"`
}

type ProjectGradedEvent struct {
	ProjectID string  `json:"project_id"`
	UserID    string  `json:"user_id"`
	GradedBy  string  `json:"graded_by"`
	Grades    []Grade `json:"grades"`
	Timestamp int64   `json:"timestamp"`
}

type CourseEnrolledEvent struct {
	CourseID  string `json:"course_id"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}
