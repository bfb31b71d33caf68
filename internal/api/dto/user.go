package dto

import "time"

// UserDTO directory user as seen by other users
type UserDTO struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Department string `json:"department"`
	JobTitle   string `json:"jobTitle"`
	AvatarURL  string `json:"avatarUrl"`
}

// MeDTO the caller, including resolved moderator rights
type MeDTO struct {
	UserDTO
	IsModerator bool `json:"isModerator"`
}

type UserFollowDTO struct {
	UserDTO
	FollowedAt time.Time `json:"followedAt"`
}

type UserFollowListDTO struct {
	Users []*UserFollowDTO `json:"users"`
	Total int64            `json:"total"`
}

type PageDTO struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"limit" validate:"omitempty,min=1,max=100"`
}

type SyncResultDTO struct {
	Upserted    int   `json:"upserted"`
	Deactivated int64 `json:"deactivated"`
}
