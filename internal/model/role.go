package model

// Role is one of the three fixed account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// CanOwnCourses reports whether the role may own courses and assignments.
func (r Role) CanOwnCourses() bool {
	return r == RoleAdmin || r == RoleTeacher
}
