package model

import "time"

// ReservationStatus is the state of a ledger entry.
type ReservationStatus string

const ReservationBooked ReservationStatus = "booked"

// Requester is the contact snapshot captured at booking time. It is copied
// into the reservation and never refreshed from the account.
type Requester struct {
	FullName  string `gorm:"size:128;not null" json:"fullname" binding:"required"`
	StudentID string `gorm:"size:32;not null" json:"mssv" binding:"required"`
	Email     string `gorm:"size:256;not null" json:"email" binding:"required,email"`
	Phone     string `gorm:"size:32;not null" json:"phonenumber" binding:"required"`
}

// Reservation is an account's claim on exactly one slot.
type Reservation struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	AccountID string `gorm:"size:36;not null;index" json:"accountId"`
	// At most one live reservation may reference a slot.
	SlotID int64 `gorm:"not null;uniqueIndex" json:"slotId"`

	RoomID      string `gorm:"size:64;not null" json:"roomId"`
	Campus      string `gorm:"size:64;not null" json:"campus"`
	Date        string `gorm:"size:10;not null" json:"date"`
	TimeRange   string `gorm:"size:32;not null" json:"timeSlot"`
	Description string `gorm:"size:256;not null;default:''" json:"description"`

	Requester `gorm:"embedded"`

	Status    ReservationStatus `gorm:"size:16;not null;default:booked" json:"status"`
	CreatedAt time.Time         `gorm:"not null" json:"createdAt"`

	// Associations
	Owner *Account `gorm:"foreignKey:AccountID" json:"owner,omitempty"`
	Slot  *Slot    `gorm:"foreignKey:SlotID;constraint:OnDelete:RESTRICT" json:"-"`
}

// Descriptor returns the slot descriptor recorded on the reservation.
func (r Reservation) Descriptor() Descriptor {
	return Descriptor{
		RoomID:      r.RoomID,
		Campus:      r.Campus,
		Date:        r.Date,
		TimeRange:   r.TimeRange,
		Description: r.Description,
	}
}
