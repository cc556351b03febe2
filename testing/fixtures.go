package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestStaffPassword is the plain password of staff created by CreateTestStaff
const TestStaffPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestStaff creates a dashboard account with TestStaffPassword
func (tf *TestFixtures) CreateTestStaff(active bool) (*models.Staff, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(TestStaffPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := utils.UTCNow()
	staff := &models.Staff{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("staff_%09d", rand.Intn(900000000)+100000000),
		PasswordHash: string(hashed),
		IsActive:     utils.ToPtr(active),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tf.DB.DB.Create(staff).Error; err != nil {
		return nil, fmt.Errorf("failed to create test staff: %w", err)
	}
	return staff, nil
}

// CreateTestContact creates an unread submission created at the given time
func (tf *TestFixtures) CreateTestContact(name, email string, createdAt time.Time) (*models.ContactSubmission, error) {
	contact := &models.ContactSubmission{
		UUID:               uuid.New(),
		Name:               name,
		WhatsApp:           "(11) 91234-5678",
		Email:              email,
		ProjectDescription: "Landing page for " + name,
		CreatedAt:          createdAt.UTC(),
		UpdatedAt:          createdAt.UTC(),
	}
	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}
	return contact, nil
}

// CreateTestPageView records a visit from ip at the given time
func (tf *TestFixtures) CreateTestPageView(ip, country string, device models.DeviceType, at time.Time) (*models.PageView, error) {
	view := &models.PageView{
		IPAddress:  ip,
		UserAgent:  "Mozilla/5.0",
		PageURL:    "/",
		Country:    country,
		DeviceType: device,
		Browser:    "Chrome",
		Timestamp:  at.UTC(),
	}
	if err := tf.DB.DB.Create(view).Error; err != nil {
		return nil, fmt.Errorf("failed to create test page view: %w", err)
	}
	return view, nil
}
