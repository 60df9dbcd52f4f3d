package model

import (
	"strings"
	"time"
)

// SlotStatus is the booking state of a slot.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "Available"
	SlotBooked      SlotStatus = "Booked"
	SlotMaintenance SlotStatus = "Maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotBooked, SlotMaintenance:
		return true
	}
	return false
}

// Descriptor identifies a bookable unit independently of its storage id.
type Descriptor struct {
	RoomID      string `json:"roomId" yaml:"room_id" binding:"required"`
	Campus      string `json:"campus" yaml:"campus" binding:"required"`
	Date        string `json:"date" yaml:"date" binding:"required"`
	TimeRange   string `json:"timeSlot" yaml:"time_slot" binding:"required"`
	Description string `json:"description" yaml:"description"`
}

// Key returns the canonical form used to serialize work on one slot.
func (d Descriptor) Key() string {
	return strings.Join([]string{d.RoomID, d.Campus, d.Date, d.TimeRange, d.Description}, "|")
}

// Slot represents one bookable (room, campus, date, time-range, description) unit.
type Slot struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	RoomID      string     `gorm:"size:64;not null;index;uniqueIndex:idx_slot_descriptor,priority:1" json:"roomId"`
	Campus      string     `gorm:"size:64;not null;uniqueIndex:idx_slot_descriptor,priority:2" json:"campus"`
	Date        string     `gorm:"size:10;not null;uniqueIndex:idx_slot_descriptor,priority:3" json:"date"`
	TimeRange   string     `gorm:"size:32;not null;uniqueIndex:idx_slot_descriptor,priority:4" json:"timeSlot"`
	Description string     `gorm:"size:256;not null;default:'';uniqueIndex:idx_slot_descriptor,priority:5" json:"description"`
	Building    string     `gorm:"size:64" json:"building"`
	Floor       int        `json:"floor"`
	Status      SlotStatus `gorm:"size:16;not null;default:Available;index" json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Descriptor returns the identifying fields of the slot.
func (s Slot) Descriptor() Descriptor {
	return Descriptor{
		RoomID:      s.RoomID,
		Campus:      s.Campus,
		Date:        s.Date,
		TimeRange:   s.TimeRange,
		Description: s.Description,
	}
}
