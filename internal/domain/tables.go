package domain

var Tables = []interface{}{
	// Accounts
	&Admin{},
	&Provider{},
	// Listings
	&Service{},
	&Event{},
	// Open data
	&DirectoryEntry{},
	// System
	&AuditLog{},
}
