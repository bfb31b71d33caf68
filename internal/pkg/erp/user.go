package erp

import (
	"strings"

	"Townhall/internal/model"

	"github.com/goccy/go-json"
)

// DirectoryUser User doctype as returned by the ERP
type DirectoryUser struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	FirstName   string     `json:"first_name"`
	MiddleName  string     `json:"middle_name"`
	LastName    string     `json:"last_name"`
	UserImage   string     `json:"user_image"`
	Enabled     int        `json:"enabled"`
	Department  string     `json:"department"`
	Location    string     `json:"location"`
	JobTitle    string     `json:"job_title"`
	Designation string     `json:"designation"`
	Roles       []RoleName `json:"roles"`
}

// RoleName accepts both "Role" and {"role": "Role"}
type RoleName string

func (r *RoleName) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = RoleName(s)
		return nil
	}
	var obj struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = RoleName(obj.Role)
	return nil
}

// ToUser normalizes the ERP record into a directory user
func (u *DirectoryUser) ToUser() *model.User {
	fullName := u.FullName
	if fullName == "" {
		parts := make([]string, 0, 3)
		for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		fullName = strings.Join(parts, " ")
	}
	if fullName == "" {
		fullName = u.Name
	}

	email := u.Email
	if email == "" {
		email = u.Name
	}

	department := u.Department
	if department == "" {
		department = u.Location
	}

	jobTitle := u.JobTitle
	if jobTitle == "" {
		jobTitle = u.Designation
	}

	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != "" {
			roles = append(roles, string(r))
		}
	}

	user := &model.User{
		ID:         u.Name,
		Email:      email,
		FullName:   fullName,
		Department: department,
		JobTitle:   jobTitle,
		AvatarURL:  u.UserImage,
		Active:     u.Enabled == 1,
	}
	user.SetRoles(roles)
	return user
}
