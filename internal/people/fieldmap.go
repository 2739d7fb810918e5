package people

// FieldMap names the vendor JSON fields the client reads. The backend has
// shipped several spellings of the same field across API versions
// ("Daystaken" vs "Days/Hours Taken", "Date_of_birth" vs "Birth Date"),
// so the mapping is data, overridable from configuration, rather than
// hardcoded lookups scattered through the client.
type FieldMap struct {
	EmployeeID   string `json:"employee_id"`
	RecordID     string `json:"record_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DisplayName  string `json:"display_name"`
	Department   string `json:"department"`
	BirthDate    string `json:"birth_date"`
	JoinDate     string `json:"join_date"`
	LocationID   string `json:"location_id"`
	ProfileURL   string `json:"profile_url"`
	Email        string `json:"email"`
	LeaveOwner   string `json:"leave_owner"`
	LeaveFrom    string `json:"leave_from"`
	LeaveTo      string `json:"leave_to"`
	LeaveStatus  string `json:"leave_status"`
	LeaveAmount  string `json:"leave_amount"`
	LeaveUnit    string `json:"leave_unit"`
	HolidayName  string `json:"holiday_name"`
	HolidayDate  string `json:"holiday_date"`
	HolidayLocID string `json:"holiday_location_id"`
}

// DefaultFieldMap matches the latest API variant.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		EmployeeID:   "EmployeeID",
		RecordID:     "Zoho_ID",
		FirstName:    "FirstName",
		LastName:     "LastName",
		DisplayName:  "Website_Display_Name",
		Department:   "Department",
		BirthDate:    "Date_of_birth",
		JoinDate:     "Dateofjoining",
		LocationID:   "LocationName.ID",
		ProfileURL:   "Open",
		Email:        "EmailID",
		LeaveOwner:   "Employee_ID",
		LeaveFrom:    "From",
		LeaveTo:      "To",
		LeaveStatus:  "ApprovalStatus",
		LeaveAmount:  "Daystaken",
		LeaveUnit:    "Unit",
		HolidayName:  "Name",
		HolidayDate:  "Date",
		HolidayLocID: "LocationId",
	}
}
