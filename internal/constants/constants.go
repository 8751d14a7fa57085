package constants

import "time"

const (
	AppName            = "habitkeeper"
	DefaultKeyringUser = "session-uid"
	ConnKeyringUser    = "connection-string"
	DefaultConfigDir   = "~/.config/habitkeeper"
	DefaultConfigPath  = "~/.config/habitkeeper/habitkeeper.db"
	Version            = "v0.3.0"

	// DateFormat is the log key format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the reminder time format accepted on the command line (HH:MM)
	TimeFormat = "15:04"

	// Document store layout: users/{uid}/{collection}/{habitID}
	UsersCollection      = "users"
	GoodHabitsCollection = "good_habits"
	BadHabitsCollection  = "bad_habits"

	// Habit defaults
	DefaultTries           = 1
	DefaultBackgroundColor = "FFFFFF"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitkeeper-"
	BackupFileSuffix = ".db"

	// Store constants
	PostgresNotifyChannel   = "habitkeeper_documents"
	SQLitePollInterval      = time.Second
	DefaultFirestoreWriteHz = 1.0
	DefaultFirestoreBurst   = 5
)
