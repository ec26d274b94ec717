package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date form stored in the date_joined column.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, held as YYYY-MM-DD.
type Date string

// NewDate formats t as a Date, discarding the time of day.
func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Time returns the date as midnight UTC.
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

func (d Date) String() string {
	return string(d)
}

func (d *Date) Scan(value interface{ any }) error {
	switch v := value.(type) {
	case time.Time:
		*d = NewDate(v)
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

// scanText accepts a bare date or a driver timestamp whose first ten
// characters are the date.
func (d *Date) scanText(v string) error {
	if len(v) < len(DateLayout) {
		return fmt.Errorf("cannot scan %q into Date", v)
	}
	t, err := time.Parse(DateLayout, v[:len(DateLayout)])
	if err != nil {
		return fmt.Errorf("cannot scan %q into Date: %w", v, err)
	}
	*d = NewDate(t)
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if _, err := d.Time(); err != nil {
		return nil, fmt.Errorf("invalid Date %q", string(d))
	}
	return string(d), nil
}

// A Unicorn is a privately held company valued at over one billion dollars.
//
// Company is the natural key: a second row with the same name is never
// written over the first.
type Unicorn struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Company         string          `gorm:"size:255;not null;uniqueIndex" json:"company"`
	Valuation       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"valuation"` // billions of USD
	DateJoined      *Date           `gorm:"type:date" json:"date_joined,omitempty"`
	Country         string          `gorm:"size:255;not null" json:"country"`
	City            string          `gorm:"size:255;not null" json:"city"`
	Industry        string          `gorm:"size:255;not null" json:"industry"`
	SelectInvestors string          `gorm:"type:text;not null" json:"select_investors"`
}

func (Unicorn) TableName() string {
	return "unicorns"
}

type ImportStatus string

const (
	ImportSucceeded ImportStatus = "succeeded"
	ImportFailed    ImportStatus = "failed"
)

// IsValid returns true if ImportStatus is known
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportSucceeded, ImportFailed:
		return true
	}
	return false
}

func (s *ImportStatus) Scan(value interface{ any }) error {
	switch v := value.(type) {
	case string:
		*s = ImportStatus(v)
	case []byte:
		*s = ImportStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into ImportStatus", value)
	}
	return nil
}

func (s ImportStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid ImportStatus %q", s)
	}
	return string(s), nil
}

// ImportRun records one pass of the importer over a source.
type ImportRun struct {
	ID         uint         `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID      string       `gorm:"size:36;not null;uniqueIndex" json:"run_id"`
	Source     string       `gorm:"size:512" json:"source"`
	RowsRead   int          `json:"rows_read"`
	Inserted   int          `json:"inserted"`
	Skipped    int          `json:"skipped"`
	Status     ImportStatus `gorm:"type:varchar(16);index" json:"status"`
	Message    string       `json:"message,omitempty"` // error text for failed runs
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `gorm:"index" json:"finished_at"`
}
