package dto

type ReactionDTO struct {
	Type string `json:"type" binding:"required" validate:"max=32"`
}

type CommentDTO struct {
	Content string `json:"content" binding:"required" validate:"max=2000"`
}
