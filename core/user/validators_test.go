package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
)

func newTestValidator() *validator.Validate {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	InitValidators(validate, translator)
	return validate
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		attrs   []string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcd12345", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcd1234!", wantTag: pwdComplexityTag},
		{name: "similar to email", pwd: "Alice@coll3ge", attrs: []string{"alice@college.edu"}, wantTag: pwdAttrSimTag},
		{name: "empty attrs ignored", pwd: "Qx7#vLm9$Kp", attrs: []string{"", ""}},
		{name: "valid", pwd: "Qx7#vLm9$Kp", attrs: []string{"Alice Student", "alice@college.edu"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTag, checkPassword(tt.pwd, tt.attrs...))
		})
	}
}

func TestValidatePassword(t *testing.T) {
	err := ValidatePassword("short")
	require.Error(t, err)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "password", vErr.Fields[0].Field)
	assert.Equal(t, pwdMinLenText, vErr.Fields[0].Error)

	assert.NoError(t, ValidatePassword("Qx7#vLm9$Kp", "Bob"))
}

func TestNewUser_Validate(t *testing.T) {
	validate := newTestValidator()
	pwd := "Qx7#vLm9$Kp"

	student := func() NewUser {
		return NewUser{
			Name:         "Alice Student",
			Email:        " Alice@College.EDU ",
			Password:     pwd,
			Role:         RoleStudent,
			StudentClass: "CS-A",
			Batch:        "2024",
			RollNo:       "42",
			DOB:          "2004-05-17",
		}
	}

	tests := []struct {
		name       string
		nu         func() NewUser
		wantFields []string
	}{
		{name: "valid student", nu: student},
		{
			name: "student without rollNo",
			nu: func() NewUser {
				nu := student()
				nu.RollNo = ""
				return nu
			},
			wantFields: []string{"rollNo"},
		},
		{
			name: "student with bad dob",
			nu: func() NewUser {
				nu := student()
				nu.DOB = "17/05/2004"
				return nu
			},
			wantFields: []string{"dob"},
		},
		{
			name: "faculty without rollNo",
			nu: func() NewUser {
				return NewUser{Name: "Prof", Email: "prof@college.edu", Password: pwd, Role: RoleFaculty, Department: "CS"}
			},
		},
		{
			name: "faculty without department",
			nu: func() NewUser {
				return NewUser{Name: "Prof", Email: "prof@college.edu", Password: pwd, Role: RoleFaculty}
			},
			wantFields: []string{"department"},
		},
		{
			name: "unknown role",
			nu: func() NewUser {
				return NewUser{Name: "X", Email: "x@college.edu", Password: pwd, Role: "janitor"}
			},
			wantFields: []string{"role"},
		},
		{
			name: "weak password",
			nu: func() NewUser {
				return NewUser{Name: "Bus", Email: "bus@college.edu", Password: "password", Role: RoleBusStaff}
			},
			wantFields: []string{"password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := tt.nu()
			err := nu.Validate(validate)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "got %T", err)
			var fields []string
			for _, fe := range vErrs {
				fields = append(fields, fe.Field())
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}

	t.Run("cleans input", func(t *testing.T) {
		nu := student()
		require.NoError(t, nu.Validate(validate))
		assert.Equal(t, "alice@college.edu", nu.Email)
	})
}

func TestUpdateUser_Merge(t *testing.T) {
	inactive := false
	usr := User{
		Name:         "Alice",
		Email:        "alice@college.edu",
		Role:         RoleStudent,
		StudentClass: "CS-A",
		Batch:        "2024",
		RollNo:       "42",
		DOB:          "2004-05-17",
		IsActive:     true,
	}

	merged := (&UpdateUser{Name: "  Alice B. ", IsActive: &inactive}).Merge(usr)
	assert.Equal(t, "Alice B.", merged.Name)
	assert.False(t, merged.IsActive)
	assert.Equal(t, "42", merged.RollNo)
	assert.True(t, usr.IsActive, "original left untouched")

	merged = (&UpdateUser{Role: RoleFaculty, Department: "CS"}).Merge(usr)
	assert.Equal(t, RoleFaculty, merged.Role)
	assert.Equal(t, "CS", merged.Department)
	assert.Empty(t, merged.RollNo)
	assert.Empty(t, merged.StudentClass)
}

func TestQueryFilter_Match(t *testing.T) {
	active := true
	usr := User{Name: "Alice Student", Email: "alice@college.edu", Role: RoleStudent, RollNo: "CS42", StudentClass: "CS-A", IsActive: true}

	tests := []struct {
		name   string
		filter *QueryFilter
		want   bool
	}{
		{name: "nil", filter: nil, want: true},
		{name: "search name", filter: &QueryFilter{Search: "alice"}, want: true},
		{name: "search roll no", filter: &QueryFilter{Search: "cs4"}, want: true},
		{name: "search miss", filter: &QueryFilter{Search: "bob"}, want: false},
		{name: "roles", filter: &QueryFilter{Roles: []string{RoleFaculty, RoleStudent}}, want: true},
		{name: "roles miss", filter: &QueryFilter{Roles: []string{RoleAdmin}}, want: false},
		{name: "class and active", filter: &QueryFilter{StudentClass: "CS-A", IsActive: &active}, want: true},
		{name: "batch miss", filter: &QueryFilter{Batch: "2020"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(usr))
		})
	}
}

func TestResetTokenDigest(t *testing.T) {
	token, digest, err := makeResetToken("secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, token, digest)

	again, err := tokenDigest(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, digest, again)

	other, err := tokenDigest(token, "other-secret")
	require.NoError(t, err)
	assert.NotEqual(t, digest, other)

	token2, _, err := makeResetToken("secret")
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
}
