package tasks

import "time"

// Task Types
const (
	TaskTypeEmbargoRelease  = "embargo:auto_release"
	TaskTypeEmbargoActivate = "embargo:activate_pending"
	TaskTypeDeclassify      = "security:declassify"
	TaskTypeClearanceScan   = "clearance:expiry_scan"
	TaskTypeShareCleanup    = "shares:cleanup"
	TaskTypeDsarReminder    = "privacy:dsar_reminder"
	TaskTypeConditionDue    = "condition:due_checks"
)

// Task Queues
const (
	QueueCritical = "critical" // embargo and declassification timers
	QueueDefault  = "default"
	QueueLow      = "low" // cleanup and reminder scans
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task Retry Settings
const (
	RetryMax     = 5
	RetryDefault = 3
	RetryMin     = 1
)
