package plan

// ID identifies one of the canonical subscription plans.
type ID string

// Canonical plans, listed in ascending rank.
const (
	Free         ID = "free"
	Basic        ID = "basic"
	Professional ID = "professional"
	Enterprise   ID = "enterprise"
)

// IDs returns the canonical plan identifiers in ascending rank order.
func IDs() []ID {
	return []ID{Free, Basic, Professional, Enterprise}
}

// Valid reports whether id is one of the canonical plans.
func (id ID) Valid() bool {
	switch id {
	case Free, Basic, Professional, Enterprise:
		return true
	}
	return false
}

// Category groups related features of a plan's feature matrix.
type Category string

const (
	CategoryContacts      Category = "contacts"
	CategoryAITools       Category = "aiTools"
	CategoryCommunication Category = "communication"
	CategorySystem        Category = "system"
)

// Feature is a capability name, scoped to its Category.
type Feature string

// Features of the built-in catalog.
const (
	FeatureBasicContacts  Feature = "basicContacts"
	FeatureContactImport  Feature = "contactImport"
	FeatureContactExport  Feature = "contactExport"
	FeatureAdvancedSearch Feature = "advancedSearch"
	FeatureCustomFields   Feature = "customFields"

	FeatureBasicAI           Feature = "basicAI"
	FeatureAdvancedAI        Feature = "advancedAI"
	FeatureAIInsights        Feature = "aiInsights"
	FeatureContentGeneration Feature = "contentGeneration"

	FeatureEmail         Feature = "email"
	FeatureSMS           Feature = "sms"
	FeatureWhatsApp      Feature = "whatsapp"
	FeatureBulkMessaging Feature = "bulkMessaging"
	FeatureAutomations   Feature = "automations"

	FeatureAPIAccess          Feature = "apiAccess"
	FeatureCustomIntegrations Feature = "customIntegrations"
	FeatureWhiteLabeling      Feature = "whiteLabeling"
	FeaturePrioritySupport    Feature = "prioritySupport"
	FeatureAuditLogs          Feature = "auditLogs"
)

// Limit names a numeric quota on a countable resource.
type Limit string

const (
	LimitContacts       Limit = "maxContacts"
	LimitAIRequests     Limit = "maxAIRequests"
	LimitEmailsPerMonth Limit = "maxEmailsPerMonth"
	LimitTeamMembers    Limit = "maxTeamMembers"
)

// Unlimited marks a limit without a cap.
const Unlimited int64 = -1

// Reset is the window over which usage of a limit accumulates.
type Reset string

const (
	ResetMonthly  Reset = "monthly"
	ResetDaily    Reset = "daily"
	ResetLifetime Reset = "lifetime" // never resets
)

// Valid reports whether r is a known reset window.
func (r Reset) Valid() bool {
	switch r {
	case ResetMonthly, ResetDaily, ResetLifetime:
		return true
	}
	return false
}
