package model

// User represents an account record as stored in the `users` table.
// Credentials and role flags live on the same row: IsAdmin gates the admin
// surface and IsActive gates every mutating route.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  Username     – unique login name; also the subject of issued tokens.
//  PasswordHash – bcrypt hash, never serialized.
//  FirstName    – optional given name.
//  LastName     – optional family name.
//  IsActive     – whether the account may act on the API.
//  IsAdmin      – whether the account holds admin privileges.
//  ProfileImage – optional web path of the profile picture.
type User struct {
	ID           uint64  `db:"id" json:"id"`
	Email        string  `db:"email" json:"email"`
	Username     string  `db:"username" json:"username"`
	PasswordHash string  `db:"password_hash" json:"-"`
	FirstName    *string `db:"first_name" json:"first_name"`
	LastName     *string `db:"last_name" json:"last_name"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	IsAdmin      bool    `db:"is_admin" json:"is_admin"`
	ProfileImage *string `db:"profile_image" json:"profile_image"`
}

// UserPatch is a partial update of a user. A nil field leaves the stored
// value unchanged.
type UserPatch struct {
	Email        *string `json:"email"`
	Username     *string `json:"username"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	ProfileImage *string `json:"profile_image"`
}

// MergeUser returns existing with every non-nil field of p applied.
func MergeUser(existing User, p UserPatch) User {
	out := existing
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Username != nil {
		out.Username = *p.Username
	}
	if p.FirstName != nil {
		out.FirstName = cloneString(p.FirstName)
	}
	if p.LastName != nil {
		out.LastName = cloneString(p.LastName)
	}
	if p.ProfileImage != nil {
		out.ProfileImage = cloneString(p.ProfileImage)
	}
	return out
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64 `db:"id"`
	UserID    uint64 `db:"user_id"`
	TokenHash string `db:"token_hash"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
