package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/campus/core"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleFaculty  = "faculty"
	RoleStudent  = "student"
	RoleBusStaff = "busstaff"
)

var (
	AllRoles = []string{RoleAdmin, RoleFaculty, RoleStudent, RoleBusStaff}

	Roles = []Role{
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Faculty", Value: RoleFaculty},
		{Name: "Student", Value: RoleStudent},
		{Name: "Bus Staff", Value: RoleBusStaff},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string `json:"id" bson:"_id"`
	Name         string `json:"name" bson:"name"`
	Email        string `json:"email" bson:"email"`
	Role         string `json:"role" bson:"role"`
	PasswordHash []byte `json:"-" bson:"password_hash"`

	// faculty
	Department string `json:"department,omitempty" bson:"department,omitempty"`

	// student
	StudentClass string `json:"studentClass,omitempty" bson:"student_class,omitempty"`
	Batch        string `json:"batch,omitempty" bson:"batch,omitempty"`
	RollNo       string `json:"rollNo,omitempty" bson:"roll_no,omitempty"`
	DOB          string `json:"dob,omitempty" bson:"dob,omitempty"` // YYYY-MM-DD

	IDCardNumber string `json:"idCardNumber,omitempty" bson:"id_card_number,omitempty"`

	PasswordResetToken   string    `json:"-" bson:"password_reset_token,omitempty"`
	PasswordResetExpires time.Time `json:"-" bson:"password_reset_expires,omitempty"`

	LastLogin time.Time `json:"lastLogin" bson:"last_login"` // UTC
	IsActive  bool      `json:"isActive" bson:"is_active"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"` // UTC
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsFaculty() bool  { return u.Role == RoleFaculty }
func (u *User) IsStudent() bool  { return u.Role == RoleStudent }
func (u *User) IsBusStaff() bool { return u.Role == RoleBusStaff }

// IsStaff reports whether the user works for the college (anyone but a student).
func (u *User) IsStaff() bool { return u.Role != "" && !u.IsStudent() }

// clearRoleFields drops the role-conditional fields that do not belong to the user's role.
func (u *User) clearRoleFields() {
	if u.Role != RoleFaculty {
		u.Department = ""
	}
	if u.Role != RoleStudent {
		u.StudentClass = ""
		u.Batch = ""
		u.RollNo = ""
		u.DOB = ""
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name         string `json:"name" validate:"required,notblank"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	Role         string `json:"role" validate:"required,role"`
	Department   string `json:"department" validate:"required_if=Role faculty"`
	StudentClass string `json:"studentClass" validate:"required_if=Role student"`
	Batch        string `json:"batch" validate:"required_if=Role student"`
	RollNo       string `json:"rollNo" validate:"required_if=Role student"`
	DOB          string `json:"dob" validate:"required_if=Role student,omitempty,datetime=2006-01-02"`
	IDCardNumber string `json:"idCardNumber" validate:"omitempty,max=64"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Department = core.CleanString(nu.Department)
	nu.StudentClass = core.CleanString(nu.StudentClass)
	nu.Batch = core.CleanString(nu.Batch)
	nu.RollNo = core.CleanString(nu.RollNo)
	nu.DOB = core.CleanString(nu.DOB)
	nu.IDCardNumber = core.CleanString(nu.IDCardNumber)
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields are left untouched.
type UpdateUser struct {
	Name         string `json:"name"`
	Email        string `json:"email" validate:"omitempty,email"`
	Role         string `json:"role" validate:"omitempty,role"`
	Department   string `json:"department"`
	StudentClass string `json:"studentClass"`
	Batch        string `json:"batch"`
	RollNo       string `json:"rollNo"`
	DOB          string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	IDCardNumber string `json:"idCardNumber" validate:"omitempty,max=64"`
	IsActive     *bool  `json:"isActive"`
	Password     string `json:"password"`
}

// IsPrivileged reports whether the update touches fields only an admin may change.
func (uu *UpdateUser) IsPrivileged() bool {
	return uu.Role != "" || uu.IsActive != nil || uu.IDCardNumber != "" || uu.Email != ""
}

// Merge applies the update onto a copy of usr.
func (uu *UpdateUser) Merge(usr User) User {
	setIfSet := func(dst *string, val string, lower ...bool) {
		if v := core.CleanString(val, lower...); v != "" {
			*dst = v
		}
	}
	setIfSet(&usr.Name, uu.Name)
	setIfSet(&usr.Email, uu.Email, true /* lower */)
	setIfSet(&usr.Role, uu.Role, true /* lower */)
	setIfSet(&usr.Department, uu.Department)
	setIfSet(&usr.StudentClass, uu.StudentClass)
	setIfSet(&usr.Batch, uu.Batch)
	setIfSet(&usr.RollNo, uu.RollNo)
	setIfSet(&usr.DOB, uu.DOB)
	setIfSet(&usr.IDCardNumber, uu.IDCardNumber)
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	usr.clearRoleFields()
	return usr
}

// profile is the role-conditional view of a User, validated after an update is merged.
type profile struct {
	Role         string `json:"role" validate:"required,role"`
	Department   string `json:"department" validate:"required_if=Role faculty"`
	StudentClass string `json:"studentClass" validate:"required_if=Role student"`
	Batch        string `json:"batch" validate:"required_if=Role student"`
	RollNo       string `json:"rollNo" validate:"required_if=Role student"`
	DOB          string `json:"dob" validate:"required_if=Role student"`
}

func validateProfile(validate *validator.Validate, usr User) error {
	return validate.Struct(profile{
		Role:         usr.Role,
		Department:   usr.Department,
		StudentClass: usr.StudentClass,
		Batch:        usr.Batch,
		RollNo:       usr.RollNo,
		DOB:          usr.DOB,
	})
}

type LoginCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
}

func (lc *LoginCredentials) Validate(validate *validator.Validate) error {
	lc.Email = core.CleanString(lc.Email, true /* lower */)
	lc.Role = core.CleanString(lc.Role, true /* lower */)
	return validate.Struct(lc)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,role"`
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	pr.Role = core.CleanString(pr.Role, true /* lower */)
	return validate.Struct(pr)
}

type ResetUserPassword struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	rp.Token = core.CleanString(rp.Token)
	return validate.Struct(rp)
}

type GetFilter struct {
	ID         string
	Email      string
	ResetToken string // digest, as stored
}

type QueryFilter struct {
	Search       string   `query:"search"`
	Roles        []string `query:"role"`
	StudentClass string   `query:"class"`
	Batch        string   `query:"batch"`
	Department   string   `query:"department"`
	IsActive     *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.StudentClass == "" && qf.Batch == "" &&
		qf.Department == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.StudentClass = core.CleanString(qf.StudentClass)
	qf.Batch = core.CleanString(qf.Batch)
	qf.Department = core.CleanString(qf.Department)
}

// Match reports whether usr satisfies every set field of the filter.
// Search is a case-insensitive substring match on Name, Email or RollNo.
func (qf *QueryFilter) Match(usr User) bool {
	if qf == nil {
		return true
	}
	if qf.Search != "" &&
		!(core.ContainsFold(usr.Name, qf.Search) || core.ContainsFold(usr.Email, qf.Search) ||
			core.ContainsFold(usr.RollNo, qf.Search)) {
		return false
	}
	if len(qf.Roles) > 0 {
		var found bool
		for _, r := range qf.Roles {
			if usr.Role == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if qf.StudentClass != "" && usr.StudentClass != qf.StudentClass {
		return false
	}
	if qf.Batch != "" && usr.Batch != qf.Batch {
		return false
	}
	if qf.Department != "" && usr.Department != qf.Department {
		return false
	}
	if qf.IsActive != nil && usr.IsActive != *qf.IsActive {
		return false
	}
	return true
}

// OrderingFields maps the public ordering names to stored field names.
var OrderingFields = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"roll_no":    "roll_no",
	"created_at": "created_at",
	"last_login": "last_login",
}
