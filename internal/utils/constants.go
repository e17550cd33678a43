package utils

const (
	OrganizationName                      = "Unlocked"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)
