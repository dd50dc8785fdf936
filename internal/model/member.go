package model

// Member is a team directory entry. Members are managed by admins only and
// are removed permanently on delete.
type Member struct {
	ID       uint64  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Position string  `db:"position" json:"position"`
	Age      int     `db:"age" json:"age"`
	Photo    *string `db:"photo" json:"photo"`
	Bio      *string `db:"bio" json:"bio"`
}

// MemberPatch is a partial update of a member.
type MemberPatch struct {
	Name     *string `json:"name"`
	Position *string `json:"position"`
	Age      *int    `json:"age"`
	Photo    *string `json:"photo"`
	Bio      *string `json:"bio"`
}

// MergeMember returns existing with every non-nil field of p applied.
func MergeMember(existing Member, p MemberPatch) Member {
	out := existing
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Age != nil {
		out.Age = *p.Age
	}
	if p.Photo != nil {
		out.Photo = cloneString(p.Photo)
	}
	if p.Bio != nil {
		out.Bio = cloneString(p.Bio)
	}
	return out
}
