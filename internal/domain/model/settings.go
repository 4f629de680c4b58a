package model

// Settings is the process-wide singleton row. TargetChannel and
// InitializerID stay zero until the init command runs.
type Settings struct {
	Initialized   bool
	TargetChannel string
	InitializerID int64
}
