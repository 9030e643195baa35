package services

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/google/uuid"
)

// Column widths, in characters.
const (
	maxUsernameLen = 32
	maxFullNameLen = 255
	maxEmailLen    = 255
	maxTitleLen    = 255
	maxArtistLen   = 255
	maxDurationLen = 32
)

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

type SignupInput struct {
	Username string
	FullName string
	Email    string
	Password string
}

func (in *SignupInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
}

// Validate checks the input before any store access.
func (in SignupInput) Validate() error {
	switch {
	case in.Username == "":
		return common.E(common.ErrValidation, "Username is required")
	case in.FullName == "":
		return common.E(common.ErrValidation, "Full name is required")
	case in.Email == "":
		return common.E(common.ErrValidation, "Email is required")
	case in.Password == "":
		return common.E(common.ErrValidation, "Password is required")
	}

	if tooLong(in.Username, maxUsernameLen) {
		return common.E(common.ErrValidation, "Username is too long")
	}
	if tooLong(in.FullName, maxFullNameLen) {
		return common.E(common.ErrValidation, "Full name is too long")
	}
	if tooLong(in.Email, maxEmailLen) {
		return common.E(common.ErrValidation, "Email is too long")
	}
	if strings.IndexFunc(in.Username, unicode.IsSpace) >= 0 {
		return common.E(common.ErrValidation, "Username must not contain spaces")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return common.E(common.ErrValidation, "Email is not valid")
	}
	// bcrypt rejects passwords longer than 72 bytes
	if len(in.Password) > 72 {
		return common.E(common.ErrValidation, "Password is too long")
	}
	return nil
}

type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

func (in LoginInput) Validate() error {
	if strings.TrimSpace(in.UsernameOrEmail) == "" || in.Password == "" {
		return common.E(common.ErrValidation, "Username or email and password are required")
	}
	return nil
}

type CreateTrackInput struct {
	Title         string
	AudioFileURL  string
	CoverImageURL *string
	Artist        *string
	Duration      string
}

func (in CreateTrackInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return common.E(common.ErrValidation, "Title is required")
	case strings.TrimSpace(in.AudioFileURL) == "":
		return common.E(common.ErrValidation, "Audio file URL is required")
	case strings.TrimSpace(in.Duration) == "":
		return common.E(common.ErrValidation, "Duration is required")
	case tooLong(in.Title, maxTitleLen):
		return common.E(common.ErrValidation, "Title is too long")
	case in.Artist != nil && tooLong(*in.Artist, maxArtistLen):
		return common.E(common.ErrValidation, "Artist is too long")
	case tooLong(in.Duration, maxDurationLen):
		return common.E(common.ErrValidation, "Duration is too long")
	}
	return nil
}

// parseID validates an entity ID and returns it in canonical form.
func parseID(id, what string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", common.E(common.ErrValidation, "Invalid "+what+" id")
	}
	return u.String(), nil
}
