package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Assignment belongs to one course and records per-student completion.
type Assignment struct {
	ID                bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title             string        `bson:"title" json:"title"`
	Description       string        `bson:"description" json:"description"`
	Deadline          *time.Time    `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Teacher           UserSnapshot  `bson:"teacher" json:"teacher"`
	CourseID          bson.ObjectID `bson:"course_id" json:"course_id"`
	StudentsCompleted []Completion  `bson:"students_completed" json:"students_completed"`
	CreatedAt         time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at" json:"updated_at"`
}

// Completion is an append-only record of a student finishing an assignment.
type Completion struct {
	StudentID   bson.ObjectID `bson:"student_id" json:"student_id"`
	StudentName string        `bson:"student_name" json:"student_name"`
	CompletedAt time.Time     `bson:"completed_at" json:"completed_at"`
}

// HasCompleted reports whether studentID already has a completion record.
func (a *Assignment) HasCompleted(studentID bson.ObjectID) bool {
	for _, c := range a.StudentsCompleted {
		if c.StudentID == studentID {
			return true
		}
	}
	return false
}

// Summary is the copy embedded in the parent course.
func (a *Assignment) Summary() AssignmentSummary {
	return AssignmentSummary{ID: a.ID, Title: a.Title, Deadline: a.Deadline}
}

// AssignmentSummary is the course-embedded view of an assignment.
type AssignmentSummary struct {
	ID       bson.ObjectID `bson:"_id" json:"id"`
	Title    string        `bson:"title" json:"title"`
	Deadline *time.Time    `bson:"deadline,omitempty" json:"deadline,omitempty"`
}

// AssignmentUpdate carries the fields of a partial assignment edit.
type AssignmentUpdate struct {
	Title       *string
	Description *string
	Deadline    *time.Time
}

// Empty reports whether the update changes nothing.
func (u AssignmentUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Deadline == nil
}

// CreateAssignmentRequest is the payload for creating an assignment.
type CreateAssignmentRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Deadline    *time.Time `json:"deadline"`
	CourseID    string     `json:"course_id" binding:"required,len=24,hexadecimal"`
}

// UpdateAssignmentRequest is a partial assignment edit.
type UpdateAssignmentRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Deadline    *time.Time `json:"deadline"`
}

// CompleteAssignmentRequest names the student being marked. Students leave it empty.
type CompleteAssignmentRequest struct {
	StudentID string `json:"student_id" binding:"omitempty,len=24,hexadecimal"`
}
