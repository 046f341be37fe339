package store

import "time"

// Work item statuses.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

// Habit categories.
const (
	HabitSkill   = "skill"
	HabitRoutine = "routine"
)

// Recurrence types.
const (
	RecurrenceNone        = "none"
	RecurrenceDaily       = "daily"
	RecurrenceEveryNDays  = "every_n_days"
	RecurrenceWeekly      = "weekly"
)

// Goal types.
const (
	GoalPoints            = "points"
	GoalProjectCompletion = "project_completion"
)

// Backup types.
const (
	BackupAuto   = "auto"
	BackupManual = "manual"
)

// DateLayout is the date-only layout used for effective dates and due
// dates throughout the core. Never a timestamp, never timezone-aware.
const DateLayout = "2006-01-02"

// Recurrence is embedded on WorkItem. Only meaningful for habits; a
// non-habit item always carries RecurrenceNone. The weekday set is a
// Store-level concern (see DaysOfWeek) — nothing above the Store
// boundary should encode it as a serialized string.
type Recurrence struct {
	Type      string // none, daily, every_n_days, weekly
	Interval  int    // for every_n_days
	DaysOfWeek []int // 0 (Sunday) .. 6, for weekly
}

// WorkItem is a task or habit instance.
type WorkItem struct {
	ID             int64
	Description    string
	Project        string
	Priority       int // 0..10
	Energy         int // 0..5
	IsHabit        bool
	IsToday        bool
	Status         string
	DueDate        string // date-only, may be ""
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	TimeSpent      int64 // seconds
	DependsOn      *int64
	HabitType      string // skill, routine, or "" for non-habits
	Recurrence     Recurrence
	Streak         int
	LastCompleted  *string // date-only
	DailyTarget    int
	DailyCompleted int
}

// Settings is the singleton configuration row, resolved from the
// settings key/value table into typed fields with documented defaults.
type Settings struct {
	// Planning
	MaxTasksPerDay int
	CriticalDays   int

	// Reward coefficients
	PointsPerTaskBase     int
	PointsPerHabitBase    int
	RoutinePointsFixed    int
	EnergyMultBase        float64
	EnergyMultStep        float64
	StreakLogFactor       float64
	MaxStreakBonusDays    int
	MinutesPerEnergyUnit  int
	MinWorkTimeSeconds    int
	TimeEfficiencyWeight  float64
	CompletionBonusFull   float64
	CompletionBonusGood   float64

	// Penalties
	IdlePenalty              int
	IncompleteDayPenalty     int
	IncompleteDayThreshold   float64
	IncompleteThresholdSevere float64
	IncompletePenaltySevere  int
	MissedHabitPenaltyBase   int
	ProgressivePenaltyFactor float64
	ProgressivePenaltyMax    float64
	PenaltyStreakResetDays   int

	// Day boundary
	DayStartEnabled bool
	DayStartTime    string // "HH:MM"

	// Schedule
	RollAvailableTime     string
	AutoPenaltiesEnabled  bool
	PenaltyTime           string
	AutoRollEnabled       bool
	AutoRollTime          string
	AutoBackupEnabled     bool
	BackupTime            string
	BackupIntervalDays    int
	BackupKeepLocalCount  int

	// State (idempotence tokens)
	LastRollDate    string
	LastPenaltyDate string
	LastBackupDate  string
	PendingRoll     bool

	// ActiveItemID is the scalar "currently active work item" column
	// recommended by the design notes so that start/stop/complete can
	// enforce the single-active-item invariant within one transaction.
	ActiveItemID *int64
}

// DefaultSettings returns the documented defaults for every knob in §6.
func DefaultSettings() Settings {
	return Settings{
		MaxTasksPerDay: 10,
		CriticalDays:   2,

		PointsPerTaskBase:    10,
		PointsPerHabitBase:   10,
		RoutinePointsFixed:   6,
		EnergyMultBase:       0.6,
		EnergyMultStep:       0.2,
		StreakLogFactor:      0.15,
		MaxStreakBonusDays:   100,
		MinutesPerEnergyUnit: 20,
		MinWorkTimeSeconds:   120,
		TimeEfficiencyWeight: 0.5,
		CompletionBonusFull:  0.10,
		CompletionBonusGood:  0.05,

		IdlePenalty:               30,
		IncompleteDayPenalty:      10,
		IncompleteDayThreshold:    0.6,
		IncompleteThresholdSevere: 0.4,
		IncompletePenaltySevere:   15,
		MissedHabitPenaltyBase:    15,
		ProgressivePenaltyFactor:  0.1,
		ProgressivePenaltyMax:     1.5,
		PenaltyStreakResetDays:    2,

		DayStartEnabled: false,
		DayStartTime:    "06:00",

		RollAvailableTime:    "00:00",
		AutoPenaltiesEnabled: true,
		PenaltyTime:          "00:01",
		AutoRollEnabled:      false,
		AutoRollTime:         "06:00",
		AutoBackupEnabled:    true,
		BackupTime:           "03:00",
		BackupIntervalDays:   1,
		BackupKeepLocalCount: 10,
	}
}

// DayLedger is the per-effective-date scoring row.
type DayLedger struct {
	Date            string // effective date, primary key
	PointsEarned    int
	PointsPenalty   int
	DailyTotal      int
	TasksCompleted  int
	TasksPlanned    int
	HabitsCompleted int
	HabitsTotal     int
	CompletionRate  float64
	PenaltyStreak   int
	Details         string // JSON blob, see scoring package
}

// Goal tracks a points or project-completion target with an optional
// claimable reward.
type Goal struct {
	ID                int64
	Type              string
	TargetPoints      *int
	ProjectName       *string
	RewardDescription string
	Deadline          *string
	Achieved          bool
	AchievedDate      *string
	RewardClaimed     bool
	RewardClaimedAt   *time.Time
	CreatedAt         time.Time
}

// RestDay exempts a date from penalty calculations.
type RestDay struct {
	Date        string
	Description string
}

// Backup is a metadata record for a database snapshot; the file copy
// mechanics themselves are an external collaborator.
type Backup struct {
	ID              int64
	Filename        string
	CreatedAt       time.Time
	SizeBytes       int64
	Type            string
	UploadedOffsite bool
}
