package model

import (
	"time"
)

type Category struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	ParentID *int64 `json:"parentId,omitempty" db:"parent_id"`
}

// BookInfo describes a title; the physical items are BookCopy rows.
type BookInfo struct {
	ID         int64  `json:"id" db:"id"`
	Title      string `json:"title" db:"title"`
	Author     string `json:"author" db:"author"`
	CategoryID int64  `json:"categoryId" db:"category_id"`
}

type BookCopy struct {
	ID           int64      `json:"id" db:"id"`
	SerialNumber int64      `json:"serialNumber" db:"serial_number"`
	Status       CopyStatus `json:"status" db:"status"`
	BookInfoID   int64      `json:"bookInfoId" db:"book_info_id"`
}

type CatalogEntry struct {
	Info BookInfo `json:"bookInfo"`
	Copy BookCopy `json:"copy"`
}

const LoanPeriod = 7 * 24 * time.Hour

type Rental struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"userId" db:"user_id"`
	CopyID     int64      `json:"libraryBookId" db:"book_copy_id"`
	RentedAt   time.Time  `json:"rentedAt" db:"rented_at"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty" db:"returned_at"`
}

func (r Rental) IsOpen() bool {
	return r.ReturnedAt == nil
}

// IsOverdue reports an open rental whose due date is strictly before now.
func (r Rental) IsOverdue(now time.Time) bool {
	return r.IsOpen() && r.DueDate.Before(now)
}

type AuditAction string

const (
	ActionRented   AuditAction = "RENTED"
	ActionReturned AuditAction = "RETURNED"
)

type AuditLogEntry struct {
	ID        int64       `json:"id" db:"id"`
	UserID    int64       `json:"userId" db:"user_id"`
	CopyID    int64       `json:"libraryBookId" db:"book_copy_id"`
	Action    AuditAction `json:"action" db:"action"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// Actor is the already authenticated caller of an operation.
type Actor struct {
	ID      int64
	IsAdmin bool
}

type CommandType string

const (
	CommandRent   CommandType = "RENT"
	CommandReturn CommandType = "RETURN"
)

// RentalCommand arrives asynchronously on the commands topic.
type RentalCommand struct {
	CommandID string      `json:"commandId"`
	Type      CommandType `json:"type"`
	UserID    int64       `json:"userId"`
	IsAdmin   bool        `json:"isAdmin"`
	CopyID    int64       `json:"copyId"`
}

// RentalEvent is published after a rental transition has been committed.
type RentalEvent struct {
	EventID    string      `json:"eventId"`
	Action     AuditAction `json:"action"`
	UserID     int64       `json:"userId"`
	CopyID     int64       `json:"copyId"`
	RentalID   int64       `json:"rentalId"`
	OccurredAt time.Time   `json:"occurredAt"`
}
