package model

import (
	"strings"
	"time"
)

// User local copy of an HR/ERP directory entry
type User struct {
	ID         string    `gorm:"primaryKey;size:140" json:"id"`
	Email      string    `gorm:"size:255;index:idx_email" json:"email"`
	FullName   string    `gorm:"size:255" json:"fullName"`
	Department string    `gorm:"size:140;index:idx_department" json:"department"`
	JobTitle   string    `gorm:"size:140" json:"jobTitle"`
	AvatarURL  string    `gorm:"size:512" json:"avatarUrl"`
	Roles      string    `gorm:"size:512" json:"-"`
	Active     bool      `gorm:"index:idx_active" json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// RoleList roles are stored comma separated
func (u *User) RoleList() []string {
	if u.Roles == "" {
		return nil
	}
	parts := strings.Split(u.Roles, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

func (u *User) SetRoles(roles []string) {
	u.Roles = strings.Join(roles, ",")
}
