package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = core.NewConflictError("a user with this email already exists", "email")
	ErrIDCardExists       = core.NewConflictError("a user with this ID card number already exists", "idCardNumber")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrInvalidResetToken  = core.NewValidationError(
		errors.New("invalid or expired password reset token"),
		core.FieldError{Field: "token", Error: "invalid or expired password reset token"},
	)
)

type (
	Repository interface {
		// CreateUser stores usr. It fails with ErrEmailExists or ErrIDCardExists when usr breaks a uniqueness rule.
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns the first user matching every set field of filter, or ErrNotFound.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsers(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		conf     *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		conf:     conf,
	}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	now := core.Now()
	usr := User{
		ID:           uuid.NewString(),
		Name:         nu.Name,
		Email:        nu.Email,
		Role:         nu.Role,
		Department:   nu.Department,
		StudentClass: nu.StudentClass,
		Batch:        nu.Batch,
		RollNo:       nu.RollNo,
		DOB:          nu.DOB,
		IDCardNumber: nu.IDCardNumber,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	usr.clearRoleFields()
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Authenticate looks up the user by email and role, then checks their password.
func (svc *Service) Authenticate(ctx context.Context, creds LoginCredentials) (User, error) {
	if err := creds.Validate(svc.validate); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: creds.Email})
	if err != nil {
		return User{}, err
	}
	if usr.Role != creds.Role {
		return User{}, ErrNotFound
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return svc.SetLastLogin(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset issues a password reset token and mails it to the user.
// It returns ErrNotFound when no user matches the request.
func (svc *Service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	if err := req.Validate(svc.validate); err != nil {
		return err
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: req.Email})
	if err != nil {
		return err
	}
	if req.Role != "" && usr.Role != req.Role {
		return ErrNotFound
	}

	token, digest, err := makeResetToken(svc.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	usr.PasswordResetToken = digest
	usr.PasswordResetExpires = nowFunc().Add(svc.conf.PasswordResetTimeoutDelta)
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "storing reset token")
	}

	svc.sendPasswordResetMail(usr, token)
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User, token string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":      usr.Name,
			"Token":     token,
			"ExpiresIn": svc.conf.PasswordResetTimeoutDelta.String(),
		},
	})
}

// ResetPassword sets a new password for the user the reset token was issued to.
// The token can only be used once.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error) {
	if err := rp.Validate(svc.validate); err != nil {
		return User{}, err
	}

	digest, err := tokenDigest(rp.Token, svc.conf.SecretKey)
	if err != nil {
		return User{}, errors.Wrap(err, "signing token")
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ResetToken: digest})
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidResetToken
		}
		return User{}, err
	}
	if !nowFunc().Before(usr.PasswordResetExpires) {
		return User{}, ErrInvalidResetToken
	}

	if err = ValidatePassword(rp.Password, usr.Name, usr.Email); err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.PasswordResetToken = ""
	usr.PasswordResetExpires = time.Time{}
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

// Update merges uu into the user with the given id.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	if err := svc.validate.Struct(uu); err != nil {
		return User{}, err
	}

	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr = uu.Merge(usr)
	if err = validateProfile(svc.validate, usr); err != nil {
		return User{}, err
	}
	if uu.Password != "" {
		if err = ValidatePassword(uu.Password, usr.Name, usr.Email); err != nil {
			return User{}, err
		}
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsers(ctx, ids...)
}
