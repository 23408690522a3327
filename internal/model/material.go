package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Material is the metadata record of an uploaded study file.
type Material struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	FileURL     string        `bson:"file_url" json:"file_url"`
	ObjectKey   string        `bson:"object_key" json:"-"`
	FileName    string        `bson:"file_name" json:"file_name"`
	FileType    string        `bson:"file_type" json:"file_type"`
	FileSize    int64         `bson:"file_size" json:"file_size"`
	CourseID    bson.ObjectID `bson:"course_id" json:"course_id"`
	UploadedBy  UserSnapshot  `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt  time.Time     `bson:"uploaded_at" json:"uploaded_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// MaterialUpdate carries the editable material fields.
type MaterialUpdate struct {
	Title       *string
	Description *string
}

// Empty reports whether the update changes nothing.
func (u MaterialUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil
}

// UploadMaterialForm is the multipart form of a material upload; the file part is read separately.
type UploadMaterialForm struct {
	Title       string `form:"title" json:"title" binding:"required,min=1,max=200"`
	Description string `form:"description" json:"description" binding:"max=5000"`
	CourseID    string `form:"course_id" json:"course_id" binding:"required,len=24,hexadecimal"`
}

// UpdateMaterialRequest edits title and description.
type UpdateMaterialRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
}

// UpdateProfileForm is the multipart form of a profile edit; the picture part is optional.
type UpdateProfileForm struct {
	FirstName *string `form:"first_name" json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `form:"last_name" json:"last_name" binding:"omitempty,min=1,max=100"`
}
