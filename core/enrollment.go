package core

import "time"

// Enrollment links a user to a course. A passing quiz submission marks the
// enrollment completed, creating it first if the user never enrolled
// explicitly.
type Enrollment struct {
	UserID      string     `json:"userId"`
	CourseID    string     `json:"courseId"`
	EnrolledAt  time.Time  `json:"enrolledAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
