// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package alerts

// Categories used by the built-in catalog.
const (
	CategoryUsers   = "Users Logins & Sessions Events"
	CategoryProfile = "User Profiles"
	CategoryContent = "Content"
	CategoryMedia   = "Files & Media"
	CategorySystem  = "System Settings"
)

// Identity alert types: their occurrences describe who authenticated, so the
// archive engine reconciles username and user id before moving them.
const (
	TypeUserLogin          = 1000
	TypeUserLogout         = 1001
	TypeFailedLogin        = 1002
	TypeFailedLoginUnknown = 1003
)

// Alert types raised by Auditrail itself.
const (
	TypeArchiveCompleted = 6023
	TypeAlertsToggled    = 6024
)

// IdentityTypes returns the identity alert types.
func IdentityTypes() []int {
	return []int{TypeUserLogin, TypeUserLogout, TypeFailedLogin, TypeFailedLoginUnknown}
}

// DefaultCatalog returns the built-in alert definitions.
func DefaultCatalog() []Definition {
	return []Definition{
		{
			Type: TypeUserLogin, Severity: SeverityLow, Category: CategoryUsers, Subcategory: "Logins",
			Description: "User logged in",
			Message:     "User %Username% logged in from %ClientIP%.",
			Object:      "user", EventType: "login",
		},
		{
			Type: TypeUserLogout, Severity: SeverityLow, Category: CategoryUsers, Subcategory: "Logins",
			Description: "User logged out",
			Message:     "User %Username% logged out.",
			Object:      "user", EventType: "logout",
		},
		{
			Type: TypeFailedLogin, Severity: SeverityMedium, Category: CategoryUsers, Subcategory: "Logins",
			Description: "Login failed",
			Message:     "%Attempts% failed login(s) for the username %Username% from %ClientIP%.",
			Object:      "user", EventType: "failed-login",
		},
		{
			Type: TypeFailedLoginUnknown, Severity: SeverityLow, Category: CategoryUsers, Subcategory: "Logins",
			Description: "Login failed / non existing user",
			Message:     "%Attempts% failed login request(s) with the non existing username %Username%.%LineBreak%%LogFileText%",
			Object:      "system", EventType: "failed-login",
		},
		{
			Type: 1004, Severity: SeverityMedium, Category: CategoryUsers, Subcategory: "Sessions",
			Description: "Login blocked",
			Message:     "Login blocked for %Username% because another session exists from %ClientIP%.",
			Object:      "user", EventType: "blocked",
		},
		{
			Type: 1006, Severity: SeverityMedium, Category: CategoryUsers, Subcategory: "Sessions",
			Description: "User terminated other sessions",
			Message:     "User %Username% terminated %SessionCount% other session(s).",
			Object:      "user", EventType: "logout",
		},
		{
			Type: 2000, Severity: SeverityInformational, Category: CategoryContent, Subcategory: "Posts",
			Description: "Created a new post",
			Message:     "Created the %PostType% %PostTitle%.%LineBreak%Status: %PostStatus%. %EditorLinkPost%",
			Object:      "post", EventType: "created",
		},
		{
			Type: 2001, Severity: SeverityInformational, Category: CategoryContent, Subcategory: "Posts",
			Description: "Published a post",
			Message:     "Published the %PostType% %PostTitle%.%LineBreak%URL: %PostUrl% %EditorLinkPost%",
			Object:      "post", EventType: "published",
		},
		{
			Type: 2002, Severity: SeverityLow, Category: CategoryContent, Subcategory: "Posts",
			Description: "Modified a post",
			Message:     "Modified the %PostType% %PostTitle%.%LineBreak%%MetaLink%",
			Object:      "post", EventType: "modified",
		},
		{
			Type: 2012, Severity: SeverityMedium, Category: CategoryContent, Subcategory: "Posts",
			Description: "Moved a post to trash",
			Message:     "Moved the %PostType% %PostTitle% to trash.",
			Object:      "post", EventType: "deleted",
		},
		{
			Type: 2053, Severity: SeverityLow, Category: CategoryContent, Subcategory: "Custom Fields",
			Description: "Changed the value of a custom field",
			Message:     "Changed the value of the custom field %MetaKey% in %PostTitle% from %MetaValueOld% to %MetaValueNew%.%LineBreak%%MetaLink%",
			Object:      "post", EventType: "modified",
		},
		{
			Type: 2062, Severity: SeverityLow, Category: CategoryContent, Subcategory: "Custom Fields",
			Description: "Created a custom field",
			Message:     "Created the custom field %MetaKey% with value %MetaValue% in %PostTitle%.%LineBreak%%MetaLink%",
			Object:      "post", EventType: "modified",
		},
		{
			Type: 2010, Severity: SeverityInformational, Category: CategoryMedia, Subcategory: "Files",
			Description: "Uploaded a file",
			Message:     "Uploaded the file %FileName% to %FilePath%. %LinkFile%",
			Object:      "file", EventType: "uploaded",
		},
		{
			Type: 2011, Severity: SeverityLow, Category: CategoryMedia, Subcategory: "Files",
			Description: "Deleted a file",
			Message:     "Deleted the file %FileName% from %FilePath%.",
			Object:      "file", EventType: "deleted",
		},
		{
			Type: 4000, Severity: SeverityCritical, Category: CategoryProfile, Subcategory: "User Accounts",
			Description: "New user was created",
			Message:     "New user %NewUserName% registered with the role %NewUserRole%.",
			Object:      "user", EventType: "created",
		},
		{
			Type: 4001, Severity: SeverityCritical, Category: CategoryProfile, Subcategory: "User Accounts",
			Description: "User created another user",
			Message:     "Created the new user %NewUserName% with the role %NewUserRole%.",
			Object:      "user", EventType: "created",
		},
		{
			Type: 4002, Severity: SeverityCritical, Category: CategoryProfile, Subcategory: "User Accounts",
			Description: "Role of a user changed",
			Message:     "Changed the role of user %TargetUsername% from %OldRole% to %NewRole%.",
			Object:      "user", EventType: "modified",
		},
		{
			Type: 4003, Severity: SeverityHigh, Category: CategoryProfile, Subcategory: "User Accounts",
			Description: "User changed their password",
			Message:     "Changed the password.",
			Object:      "user", EventType: "modified",
		},
		{
			Type: 4007, Severity: SeverityHigh, Category: CategoryProfile, Subcategory: "User Accounts",
			Description: "User deleted another user",
			Message:     "Deleted the user %TargetUsername% with the role %TargetUserRole%.",
			Object:      "user", EventType: "deleted",
		},
		{
			Type: 6001, Severity: SeverityCritical, Category: CategorySystem, Subcategory: "Settings",
			Description: "Changed the option anyone can register",
			Message:     "The option Anyone can register was %EventType%.",
			Object:      "system-setting", EventType: "enabled",
		},
		{
			Type: 6004, Severity: SeverityMedium, Category: CategorySystem, Subcategory: "Settings",
			Description: "Updated the application core",
			Message:     "Updated the core from version %OldVersion% to %NewVersion%.",
			Object:      "system", EventType: "updated",
		},
		{
			Type: TypeArchiveCompleted, Severity: SeverityInformational, Category: CategorySystem, Subcategory: "Audit Log",
			Description: "Archived audit log data",
			Message:     "Moved %Count% event(s) to the archive.%LineBreak%%Message%",
			Object:      "system", EventType: "archived",
		},
		{
			Type: TypeAlertsToggled, Severity: SeverityHigh, Category: CategorySystem, Subcategory: "Audit Log",
			Description: "Changed the disabled alert types",
			Message:     "Changed the disabled alert types to %DisabledAlerts%.",
			Object:      "system-setting", EventType: "modified",
		},
	}
}
