// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

// Password satisfies the password policy and resembles no fixture user attribute.
const Password = "Qx7#vLm9$Kp"

// NewConfig returns the configuration used by tests.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:                   "Campus",
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: time.Hour,
		Mail:                      core.MailConfig{FromName: "Campus", FromAddress: "noreply@campus.test"},
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
		Database:  core.DatabaseConfig{Driver: core.DriverMemory, QueryTimeout: 5 * time.Second},
		RateLimit: core.RateLimitConfig{AuthPerMinute: 1000},
	}
}

// MailService renders and records messages synchronously instead of sending them.
type MailService struct {
	conf     *core.Config
	mu       sync.Mutex
	messages []core.EmailMessage
}

var _ core.EmailService = (*MailService)(nil)

func NewMailService(conf *core.Config) *MailService {
	return &MailService{conf: conf}
}

func (svc *MailService) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range messages {
		if err := msg.Render(svc.conf); err != nil {
			panic(err)
		}
		svc.messages = append(svc.messages, *msg)
	}
}

// Messages returns the messages sent so far.
func (svc *MailService) Messages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.messages...)
}

// Logger discards every record.
type Logger struct{}

var _ core.Logger = Logger{}

func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{})  {}
func (Logger) Warn(string, ...interface{})  {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}

// CreateUser stores an active user with the given role, filling the fields the role requires.
// edit may adjust the user before it is stored.
func CreateUser(t *testing.T, repo user.Repository, name, email, role string, edit ...func(usr *user.User)) user.User {
	t.Helper()

	now := core.Now()
	usr := user.User{
		ID:        NewID(),
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch role {
	case user.RoleFaculty:
		usr.Department = "Computer Science"
	case user.RoleStudent:
		usr.StudentClass = "CS-A"
		usr.Batch = "2024"
		usr.RollNo = "R-" + usr.ID[:8]
		usr.DOB = "2004-05-17"
	}
	require.NoError(t, usr.SetPassword(Password))
	for _, fn := range edit {
		fn(&usr)
	}

	usr, err := repo.CreateUser(ctxBackground(), usr)
	require.NoError(t, err, "creating user")
	return usr
}
