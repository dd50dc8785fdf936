package model

// Donation is a read-only record of a gift, optionally tied to an event.
type Donation struct {
	ID          uint64  `db:"id" json:"id"`
	Amount      int     `db:"amount" json:"amount"`
	DonorID     uint64  `db:"donor_id" json:"donor_id"`
	EventID     *uint64 `db:"event_id" json:"event_id"`
	Date        Date    `db:"date" json:"date"`
	IsAnonymous bool    `db:"is_anonymous" json:"is_anonymous"`
}
