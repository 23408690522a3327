package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Course groups a roster of students, its teachers and embedded assignment summaries.
type Course struct {
	ID          bson.ObjectID       `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description" json:"description"`
	Owner       UserSnapshot        `bson:"owner" json:"owner"`
	Teachers    []UserSnapshot      `bson:"teachers" json:"teachers"`
	Students    []StudentRef        `bson:"students" json:"students"`
	Assignments []AssignmentSummary `bson:"assignments" json:"assignments"`
	Archived    bool                `bson:"archived" json:"archived"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}

// StudentRef is a roster entry.
type StudentRef struct {
	ID   bson.ObjectID `bson:"_id" json:"id"`
	Name string        `bson:"name" json:"name"`
}

// HasStudent reports whether id is on the roster.
func (c *Course) HasStudent(id bson.ObjectID) bool {
	for _, s := range c.Students {
		if s.ID == id {
			return true
		}
	}
	return false
}

// CourseUpdate carries the fields of a partial course edit.
type CourseUpdate struct {
	Name        *string
	Description *string
	Teachers    *[]UserSnapshot
}

// Empty reports whether the update changes nothing.
func (u CourseUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Teachers == nil
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"max=5000"`
	TeacherIDs  []string `json:"teacher_ids" binding:"omitempty,dive,len=24,hexadecimal"`
}

// UpdateCourseRequest is a partial course edit; absent fields stay untouched.
type UpdateCourseRequest struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string   `json:"description" binding:"omitempty,max=5000"`
	TeacherIDs  *[]string `json:"teacher_ids" binding:"omitempty,dive,len=24,hexadecimal"`
}

// ArchiveCourseRequest toggles the archived flag.
type ArchiveCourseRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

// RosterRequest names the student to enroll or remove. Students leave it empty.
type RosterRequest struct {
	StudentID string `json:"student_id" binding:"omitempty,len=24,hexadecimal"`
}
