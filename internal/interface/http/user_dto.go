package handlers

import (
	"time"

	"github.com/oksasatya/user-directory/internal/domain/entity"
)

type userResponse struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Version:   u.Version,
		Name:      u.Name,
		Nickname:  u.Nickname,
		Email:     u.Email,
		Picture:   u.Picture,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type whoAmIResponse struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Registration outcome values reported by Register.
const (
	RegistrationSuccess = "SUCCESS"
	RegistrationFailure = "FAILURE"
)

type registrationStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
