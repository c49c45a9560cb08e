package models

// AllModels returns every GORM-managed type, for AutoMigrate and schema
// registration. Order matters only for foreign-key creation on backends
// that enforce it eagerly; GORM resolves dependents after their targets.
func AllModels() []any {
	return []any{
		&User{},
		&Project{},
		&File{},
		&FileVersion{},
		&FileLock{},
		&FileReference{},
		&AuditLog{},
		&DeletionRecord{},
	}
}
