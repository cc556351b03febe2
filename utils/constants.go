package utils

import (
	"time"
)

// AccessTokenTTL is the fallback lifetime for staff access tokens
const AccessTokenTTL = 12 * time.Hour

// Contact intake constants
const (
	// ContactsPerPage is the dashboard page size for contact listings
	ContactsPerPage = 20

	// BytesPerMB converts the configured attachment limit to bytes
	BytesPerMB = 1024 * 1024

	// SubmissionDateLayout renders timestamps as DD/MM/YYYY às HH:MM
	SubmissionDateLayout = "02/01/2006 às 15:04"

	// ExportDateLayout renders timestamps in CSV exports
	ExportDateLayout = "02/01/2006 15:04"
)

// Request context keys shared by handlers and flows
type contextKey string

const (
	RequestIDKey  contextKey = "request_id"
	UserAgentKey  contextKey = "user_agent"
	IPAddressKey  contextKey = "ip_address"
	EndpointKey   contextKey = "endpoint"
	TimeoutKey    contextKey = "timeout"
	StaffIDKey    contextKey = "staff_id"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
