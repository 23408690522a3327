package model

// PageQuery is the shared ?page and ?per_page pair. Zero values fall back to the defaults.
type PageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// ListUsersQuery filters GET /users.
type ListUsersQuery struct {
	PageQuery
	Search string `form:"search" binding:"max=100"`
	Role   Role   `form:"role" binding:"omitempty,oneof=admin teacher student"`
}

// ListCoursesQuery filters GET /courses.
type ListCoursesQuery struct {
	PageQuery
	IncludeArchived bool `form:"include_archived"`
}
