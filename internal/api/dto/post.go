package dto

// NewsfeedDTO query of the main feed
type NewsfeedDTO struct {
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"limit" validate:"omitempty,min=1"`
	Type       string `form:"type"`
	Author     string `form:"author"`
	Department string `form:"department"`
	SortBy     string `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt"`
	SortOrder  string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type PostListDTO struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"limit" validate:"omitempty,min=1"`
	Keyword  string `form:"q"`
}

type LimitDTO struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
	Days  int `form:"days" validate:"omitempty,min=1,max=365"`
}
