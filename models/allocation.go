package models

import "time"

type AllocationType string

const (
	AllocationCompany  AllocationType = "company"
	AllocationPersonal AllocationType = "personal"
	AllocationBonus    AllocationType = "bonus"
)

// AllocationTypes lists every funding pool.
var AllocationTypes = []AllocationType{AllocationCompany, AllocationPersonal, AllocationBonus}

func (t AllocationType) Valid() bool {
	return t == AllocationCompany || t == AllocationPersonal || t == AllocationBonus
}

// SessionAllocation is a grant of sessions to a user from one funding pool.
// Rows are never deleted; IsActive=false retires them from new debits.
type SessionAllocation struct {
	ID                string         `bson:"id" json:"id" gorm:"primaryKey;size:64"`
	UserID            string         `bson:"userId" json:"userId" gorm:"size:64;index:idx_allocations_user_type,priority:1;not null"`
	AllocationType    AllocationType `bson:"allocationType" json:"allocationType" gorm:"size:16;index:idx_allocations_user_type,priority:2;not null"`
	SessionsAllocated int            `bson:"sessionsAllocated" json:"sessionsAllocated" gorm:"not null;default:0"`
	SessionsUsed      int            `bson:"sessionsUsed" json:"sessionsUsed" gorm:"not null;default:0"` // never exceeds SessionsAllocated
	ExpiresAt         *time.Time     `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	IsActive          bool           `bson:"isActive" json:"isActive" gorm:"not null"`
	Reason            string         `bson:"reason,omitempty" json:"reason,omitempty"` // audit only
	Version           int            `bson:"version" json:"version" gorm:"not null;default:0"` // bumped by administrative changes
	CreatedAt         time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time      `bson:"updatedAt" json:"updatedAt"`
}

func (SessionAllocation) TableName() string { return "session_allocations" }

// Remaining returns the unused balance of the allocation.
func (a *SessionAllocation) Remaining() int {
	if a.SessionsUsed >= a.SessionsAllocated {
		return 0
	}
	return a.SessionsAllocated - a.SessionsUsed
}

// Usable reports whether the allocation may be debited at now.
func (a *SessionAllocation) Usable(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}
	return a.Remaining() > 0
}

// SessionUsageRecord is one consumed unit, tied to exactly one booking.
type SessionUsageRecord struct {
	ID                  string    `bson:"id" json:"id" gorm:"primaryKey;size:64"`
	SessionAllocationID string    `bson:"sessionAllocationId" json:"sessionAllocationId" gorm:"size:64;index;not null"`
	UserID              string    `bson:"userId" json:"userId" gorm:"size:64;index;not null"`
	ProviderID          string    `bson:"providerId" json:"providerId" gorm:"size:64;not null"`
	BookingID           string    `bson:"bookingId,omitempty" json:"bookingId,omitempty" gorm:"size:64;index"`
	SessionDate         time.Time `bson:"sessionDate" json:"sessionDate"`
	Notes               string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt           time.Time `bson:"createdAt" json:"createdAt"`
}

func (SessionUsageRecord) TableName() string { return "session_usage_records" }

// Balance is the remaining session count per funding pool.
type Balance struct {
	UserID            string `json:"userId"`
	CompanyAvailable  int    `json:"companyAvailable"`
	PersonalAvailable int    `json:"personalAvailable"`
	BonusAvailable    int    `json:"bonusAvailable"`
	Total             int    `json:"total"`
}

// Add credits n remaining sessions of the given pool to the balance.
func (b *Balance) Add(t AllocationType, n int) {
	switch t {
	case AllocationCompany:
		b.CompanyAvailable += n
	case AllocationPersonal:
		b.PersonalAvailable += n
	case AllocationBonus:
		b.BonusAvailable += n
	default:
		return
	}
	b.Total += n
}

type AdjustOperation string

const (
	AdjustAdd      AdjustOperation = "add"
	AdjustSubtract AdjustOperation = "subtract"
	AdjustSet      AdjustOperation = "set"
)

func (o AdjustOperation) Valid() bool {
	return o == AdjustAdd || o == AdjustSubtract || o == AdjustSet
}

// AdjustAllocationRequest is the payload for administrative quota changes.
type AdjustAllocationRequest struct {
	UserID         string          `json:"userId" binding:"required"`
	AllocationType AllocationType  `json:"allocationType" binding:"required"`
	Operation      AdjustOperation `json:"operation" binding:"required"`
	Amount         int             `json:"amount"`
	Reason         string          `json:"reason,omitempty"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"` // only used when a new allocation is created
}
