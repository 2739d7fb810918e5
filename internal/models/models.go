package models

import (
	"strings"
	"time"
)

// Employee is the normalized record for one active employee.
// This is an internal representation, independent of any vendor API version;
// vendor field names never leak past the people client.
type Employee struct {
	Key         string     // Composite lookup key: "FirstName LastName EmployeeID"
	FirstName   string     // First name as reported by the HR backend
	LastName    string     // Last name as reported by the HR backend
	DisplayName string     // Website display name, falling back to "FirstName LastName"
	Username    string     // Chat username, derived from profile URL or email local part
	Department  string     // Department name, "-" when the backend left it empty
	BirthMonth  time.Month // Zero when the backend omits the birth date
	BirthDay    int        // Zero when the backend omits the birth date
	JoinDate    time.Time  // Zero when the joining date is unknown
	LocationID  string     // Office location id, used to look up holidays
	Email       string     // Work email
}

// LeaveStatus is the approval state of a leave request. Only Approved and
// Pending requests show up in reports.
type LeaveStatus string

const (
	StatusApproved LeaveStatus = "Approved"
	StatusPending  LeaveStatus = "Pending"
)

// LeaveUnit is the unit the leave amount is counted in.
type LeaveUnit string

const (
	UnitDay  LeaveUnit = "Day"
	UnitHour LeaveUnit = "Hour"
)

// Leave is one leave request owned by an employee.
type Leave struct {
	EmployeeKey string    // Key of the owning Employee
	From        time.Time // First day of the leave, inclusive
	To          time.Time // Last day of the leave, inclusive
	Status      LeaveStatus
	Amount      string // Vendor-formatted count, e.g. "2.0" or "0.5"
	Unit        LeaveUnit
}

// Reportable reports whether the leave should appear in summaries at all.
// Declined or cancelled requests never do, regardless of date overlap.
func (l Leave) Reportable() bool {
	return l.Status == StatusApproved || l.Status == StatusPending
}

// Pending reports whether the leave is still awaiting approval.
func (l Leave) Pending() bool {
	return l.Status == StatusPending
}

// Holiday is one public holiday applying to one or more office locations.
type Holiday struct {
	Name        string   // Raw vendor name, possibly prefixed "Location: Name"
	Date        time.Time
	LocationIDs []string // Locations the holiday applies to
}

// DisplayName strips the location prefix the backend sometimes bakes into
// the holiday name ("Brazil: Carnival" renders as "Carnival").
func (h Holiday) DisplayName() string {
	if i := strings.LastIndex(h.Name, ":"); i != -1 {
		return strings.TrimSpace(h.Name[i+1:])
	}
	return h.Name
}

// Snapshot is the complete set of cached HR data at a point in time. It is
// built once per cache rebuild and replaced wholesale, so consumers never
// see a partially updated view.
type Snapshot struct {
	Employees      []Employee
	Leaves         map[string][]Leave    // employee key -> leave requests
	Holidays       map[string][]Holiday  // employee key -> holidays at their location
	BirthdaysToday map[string]Employee   // employee key -> employee whose birthday is today
}
