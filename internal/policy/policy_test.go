package policy

import (
	"errors"
	"testing"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func reasonOf(err error) Reason {
	var d *Denial
	if errors.As(err, &d) {
		return d.Reason
	}
	return ""
}

func TestAuthorize(t *testing.T) {
	admin := Subject{ID: bson.NewObjectID(), Role: model.RoleAdmin}
	teacher := Subject{ID: bson.NewObjectID(), Role: model.RoleTeacher}
	otherTeacher := Subject{ID: bson.NewObjectID(), Role: model.RoleTeacher}
	student := Subject{ID: bson.NewObjectID(), Role: model.RoleStudent}
	otherStudent := bson.NewObjectID()

	owned := Resource{OwnerID: teacher.ID}

	tests := []struct {
		name   string
		sub    Subject
		action Action
		res    Resource
		want   Reason
	}{
		{"admin archives any course", admin, ActionCourseArchive, owned, ""},
		{"admin manages a teacher", admin, ActionUserDisable, Resource{TargetRole: model.RoleTeacher}, ""},
		{"owner archives own course", teacher, ActionCourseArchive, owned, ""},
		{"other teacher cannot archive", otherTeacher, ActionCourseArchive, owned, ReasonNotOwner},
		{"student cannot archive", student, ActionCourseArchive, owned, ReasonRoleMismatch},
		{"teacher creates course", teacher, ActionCourseCreate, Resource{}, ""},
		{"student cannot create course", student, ActionCourseCreate, Resource{}, ReasonRoleMismatch},
		{"student enrolls self", student, ActionCourseEnroll, Resource{OwnerID: teacher.ID, TargetID: student.ID}, ""},
		{"student cannot enroll another", student, ActionCourseEnroll, Resource{OwnerID: teacher.ID, TargetID: otherStudent}, ReasonNotOwner},
		{"owner enrolls a student", teacher, ActionCourseEnroll, Resource{OwnerID: teacher.ID, TargetID: otherStudent}, ""},
		{"non-owner cannot enroll", otherTeacher, ActionCourseEnroll, Resource{OwnerID: teacher.ID, TargetID: otherStudent}, ReasonNotOwner},
		{"student completes own", student, ActionAssignmentComplete, Resource{OwnerID: teacher.ID, TargetID: student.ID}, ""},
		{"teacher manages student", teacher, ActionUserResetPassword, Resource{TargetRole: model.RoleStudent}, ""},
		{"teacher cannot manage teacher", teacher, ActionUserEdit, Resource{TargetRole: model.RoleTeacher}, ReasonRoleMismatch},
		{"student cannot list users", student, ActionUserList, Resource{}, ReasonRoleMismatch},
		{"student views own profile", student, ActionProfileView, Resource{TargetID: student.ID}, ""},
		{"student cannot view other profile", student, ActionProfileView, Resource{TargetID: otherStudent}, ReasonNotOwner},
		{"student reads course", student, ActionCourseView, Resource{}, ""},
		{"student cannot send email", student, ActionEmailSend, Resource{}, ReasonRoleMismatch},
		{"recipient marks notification", student, ActionNotificationRead, Resource{OwnerID: student.ID}, ""},
		{"unknown recipient is nobody's", student, ActionNotificationRead, Resource{}, ReasonNotOwner},
		{"invalid role", Subject{ID: bson.NewObjectID(), Role: "guest"}, ActionCourseView, Resource{}, ReasonRoleMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.sub, tt.action, tt.res)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, tt.want, reasonOf(err))
		})
	}
}
