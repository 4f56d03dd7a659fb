package model

// Request mirrors the original change-request table. The surrogate id keys
// reverse-insertion ordering; request_id is the caller-facing identifier.
// Columns below base_columns were added later and stay nullable so the
// additive migrations can backfill legacy databases.
type Request struct {
	ID             uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	RequestID      string `gorm:"column:request_id;type:text;uniqueIndex;not null"`
	Title          string `gorm:"column:title;type:text;not null"`
	RequestorName  string `gorm:"column:requestor_name;type:text;not null"`
	RequestorEmail string `gorm:"column:requestor_email;type:text;not null"`
	Department     string `gorm:"column:department;type:text;not null"`
	Summary        string `gorm:"column:summary;type:text;not null"`
	Description    string `gorm:"column:description;type:text;not null"`
	ChangeType     string `gorm:"column:change_type;type:text;not null"`
	Priority       string `gorm:"column:priority;type:text;not null"`
	TargetDate     string `gorm:"column:target_date;type:text;not null"`
	Documents      string `gorm:"column:documents;type:text"`
	SpiceWaxRef    string `gorm:"column:spice_wax_ref;type:text"`
	Status         string `gorm:"column:status;type:text;not null;index"`
	AssignedTo     string `gorm:"column:assigned_to;type:text"`
	Reviewer       string `gorm:"column:reviewer;type:text"`
	SubmittedDate  string `gorm:"column:submitted_date;type:text;not null"`
	Comments       string `gorm:"column:comments;type:text"`

	// Extended metadata, added by migration v2.
	Initiator           string `gorm:"column:initiator;type:text"`
	RequestedBy         string `gorm:"column:requested_by;type:text"`
	DateRequested       string `gorm:"column:date_requested;type:text"`
	SystemName          string `gorm:"column:system_name;type:text"`
	PolicyFormComplete  bool   `gorm:"column:policy_form_complete"`
	SopTrainingComplete bool   `gorm:"column:sop_training_complete"`
	BriefDescription    string `gorm:"column:brief_description;type:text"`
}

func (Request) TableName() string {
	return "requests"
}
