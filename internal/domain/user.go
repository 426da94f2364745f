package domain

import (
	"context"
	"time"
)

const DefaultAvatarURL = "https://i.pravatar.cc/150?u=%s"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Image        string    `json:"image"`
	Following    []int64   `json:"following"`
	Followers    []int64   `json:"followers"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsFollowing reports whether u currently follows targetID.
func (u *User) IsFollowing(targetID int64) bool {
	for _, id := range u.Following {
		if id == targetID {
			return true
		}
	}
	return false
}

type Registration struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Image    string `json:"image,omitempty"`
}

type UserPage struct {
	Users      []*User `json:"users"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
}

// FollowResult holds both sides of a follow edge after a graph change.
type FollowResult struct {
	Actor  *User `json:"actor"`
	Target *User `json:"target"`
}

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *User) error

	IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error)
	AddFollow(ctx context.Context, followerID, followeeID int64) error
	RemoveFollow(ctx context.Context, followerID, followeeID int64) (bool, error)
}

type UserService interface {
	CreateUser(ctx context.Context, reg Registration) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
	VerifyCredential(plainPassword, storedHash string) bool
	Login(ctx context.Context, email, password string) (*User, error)
}

type GraphService interface {
	Follow(ctx context.Context, followerID, targetID int64) (*FollowResult, error)
	Unfollow(ctx context.Context, followerID, targetID int64) (*FollowResult, error)
}
