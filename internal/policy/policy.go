// Package policy holds the role and ownership rules for every operation.
// Authorize is pure: callers load the resource first and describe it in a Resource.
package policy

import (
	"fmt"

	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Action names an operation subject to authorization.
type Action string

const (
	ActionUserCreate        Action = "user:create"
	ActionUserList          Action = "user:list"
	ActionUserView          Action = "user:view"
	ActionUserEdit          Action = "user:edit"
	ActionUserDisable       Action = "user:disable"
	ActionUserResetPassword Action = "user:reset_password"
	ActionProfileView       Action = "profile:view"
	ActionProfileEdit       Action = "profile:edit"

	ActionCourseCreate  Action = "course:create"
	ActionCourseView    Action = "course:view"
	ActionCourseEdit    Action = "course:edit"
	ActionCourseArchive Action = "course:archive"
	ActionCourseEnroll  Action = "course:enroll"
	ActionCourseOptOut  Action = "course:opt_out"

	ActionAssignmentCreate   Action = "assignment:create"
	ActionAssignmentView     Action = "assignment:view"
	ActionAssignmentUpdate   Action = "assignment:update"
	ActionAssignmentDelete   Action = "assignment:delete"
	ActionAssignmentComplete Action = "assignment:complete"

	ActionMaterialUpload Action = "material:upload"
	ActionMaterialView   Action = "material:view"
	ActionMaterialEdit   Action = "material:edit"
	ActionMaterialDelete Action = "material:delete"

	ActionNotificationSend Action = "notification:send"
	ActionNotificationRead Action = "notification:read"
	ActionEmailSend        Action = "email:send"
)

// Reason distinguishes the two kinds of denial.
type Reason string

const (
	ReasonRoleMismatch Reason = "role_mismatch"
	ReasonNotOwner     Reason = "not_owner"
)

// Subject is the authenticated caller.
type Subject struct {
	ID    bson.ObjectID
	Email string
	Role  model.Role
}

// Resource describes what the action touches.
//   - OwnerID: the owning user (course owner, assignment teacher, notification recipient).
//   - TargetID: the user the action is performed on or for (enrolled student, managed user, profile).
//   - TargetRole: the role of TargetID, for user management actions.
type Resource struct {
	OwnerID    bson.ObjectID
	TargetID   bson.ObjectID
	TargetRole model.Role
}

// Denial is returned when Authorize refuses an action.
type Denial struct {
	Action Action
	Role   model.Role
	Reason Reason
}

func (d *Denial) Error() string {
	return fmt.Sprintf("%s may not %s: %s", d.Role, d.Action, d.Reason)
}

// Authorize decides whether sub may perform action on res.
// It returns nil when allowed and a *Denial otherwise.
func Authorize(sub Subject, action Action, res Resource) error {
	if sub.Role == model.RoleAdmin {
		return nil
	}
	if !sub.Role.Valid() {
		return deny(sub, action, ReasonRoleMismatch)
	}

	switch action {
	case ActionCourseView, ActionAssignmentView, ActionMaterialView:
		return nil

	case ActionProfileView, ActionProfileEdit:
		return requireSelf(sub, action, res.TargetID)

	case ActionNotificationRead:
		return requireSelf(sub, action, res.OwnerID)

	case ActionCourseEnroll, ActionCourseOptOut, ActionAssignmentComplete:
		if sub.Role == model.RoleStudent {
			return requireSelf(sub, action, res.TargetID)
		}
		return requireSelf(sub, action, res.OwnerID)

	case ActionCourseCreate, ActionAssignmentCreate, ActionMaterialUpload,
		ActionNotificationSend, ActionEmailSend, ActionUserCreate, ActionUserList:
		return requireTeacher(sub, action)

	case ActionCourseEdit, ActionCourseArchive, ActionAssignmentUpdate, ActionAssignmentDelete,
		ActionMaterialEdit, ActionMaterialDelete:
		if err := requireTeacher(sub, action); err != nil {
			return err
		}
		return requireSelf(sub, action, res.OwnerID)

	case ActionUserView, ActionUserEdit, ActionUserDisable, ActionUserResetPassword:
		if err := requireTeacher(sub, action); err != nil {
			return err
		}
		if res.TargetRole != model.RoleStudent {
			return deny(sub, action, ReasonRoleMismatch)
		}
		return nil
	}

	return deny(sub, action, ReasonRoleMismatch)
}

func requireTeacher(sub Subject, action Action) error {
	if sub.Role != model.RoleTeacher {
		return deny(sub, action, ReasonRoleMismatch)
	}
	return nil
}

func requireSelf(sub Subject, action Action, id bson.ObjectID) error {
	if id.IsZero() || id != sub.ID {
		return deny(sub, action, ReasonNotOwner)
	}
	return nil
}

func deny(sub Subject, action Action, reason Reason) error {
	return &Denial{Action: action, Role: sub.Role, Reason: reason}
}
