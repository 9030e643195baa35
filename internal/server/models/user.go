// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. VerificationToken and its expiry are nil once never issued.
type User struct {
	ID                         string
	Username                   string
	FullName                   string
	Email                      string
	PasswordHash               string
	IsVerified                 bool
	VerificationToken          *string
	VerificationTokenExpiresAt *time.Time
	ProfileImageURL            *string
	Bio                        *string
	CreatedAt                  time.Time
}

// Profile is a user as seen by another (possibly anonymous) user.
type Profile struct {
	ID              string
	Username        string
	FullName        string
	ProfileImageURL string
	Bio             *string
	TotalTracks     int32
	TotalFollowers  int32
	TotalFollowings int32
	FollowedByMe    bool
}
