package dto

type BadgeInfoDTO struct {
	BadgeName string `json:"badgeName" validate:"max=255"`
	BadgeIcon string `json:"badgeIcon" validate:"max=512"`
	Message   string `json:"message" validate:"max=1000"`
}

// CreatePostDTO content is trimmed and checked by the service
type CreatePostDTO struct {
	Content    string        `json:"content" validate:"max=5000"`
	Images     []string      `json:"images" validate:"max=9"`
	Videos     []string      `json:"videos" validate:"max=3"`
	Type       string        `json:"type"`
	Visibility string        `json:"visibility"`
	Department string        `json:"department" validate:"max=140"`
	Tags       []string      `json:"tags" validate:"max=50"`
	BadgeInfo  *BadgeInfoDTO `json:"badgeInfo"`
}

// UpdatePostDTO nil fields are left untouched
type UpdatePostDTO struct {
	Content    *string       `json:"content" validate:"omitempty,max=5000"`
	Images     *[]string     `json:"images" validate:"omitempty,max=9"`
	Videos     *[]string     `json:"videos" validate:"omitempty,max=3"`
	Type       *string       `json:"type"`
	Visibility *string       `json:"visibility"`
	Department *string       `json:"department" validate:"omitempty,max=140"`
	Tags       *[]string     `json:"tags" validate:"omitempty,max=50"`
	BadgeInfo  *BadgeInfoDTO `json:"badgeInfo"`
	IsPinned   *bool         `json:"isPinned"`
}
