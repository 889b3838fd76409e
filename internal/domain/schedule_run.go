package domain

import (
	"fmt"
	"time"
)

type ScheduleRunStatus string

const (
	ScheduleRunStatusPending   ScheduleRunStatus = "pending"
	ScheduleRunStatusRunning   ScheduleRunStatus = "running"
	ScheduleRunStatusCompleted ScheduleRunStatus = "completed"
	ScheduleRunStatusFailed    ScheduleRunStatus = "failed"
)

type ScheduleRunParameters struct {
	PopulationSize         int32   `json:"populationSize"`
	Generations            int32   `json:"generations"`
	MutationRate           float64 `json:"mutationRate"`
	EliteCount             int32   `json:"eliteCount"`
	Seed                   int64   `json:"seed"`
	FitnessModel           string  `json:"fitnessModel"`
	BalanceWeight          float64 `json:"balanceWeight"`
	LoadWeight             float64 `json:"loadWeight"`
	SatisfactionWeight     float64 `json:"satisfactionWeight"`
	RejectInvalidOffspring bool    `json:"rejectInvalidOffspring"`
}

type ScheduleAssignment struct {
	CourseSectionID     int64  `json:"courseSectionID"`
	CourseNumber        string `json:"courseNumber"`
	Section             string `json:"section"`
	RoomNumber          string `json:"roomNumber"`
	TimeSlotID          int64  `json:"timeSlotID"`
	TimeSlotDescription string `json:"timeSlotDescription"`
	TeacherID           int64  `json:"teacherID"`
	MeetsPreferences    bool   `json:"meetsPreferences"`
}

type ScheduleRun struct {
	ID           int64                  `json:"id"`
	CatalogID    int64                  `json:"catalogID"`
	Status       ScheduleRunStatus      `json:"status"`
	Parameters   ScheduleRunParameters  `json:"parameters"`
	BestFitness  *float64               `json:"bestFitness"`
	Valid        *bool                  `json:"valid"`
	Assignments  []ScheduleAssignment   `json:"assignments,omitempty"`
	Statistics   []GenerationStatistics `json:"statistics,omitempty"`
	RequestedBy  int64                  `json:"requestedBy"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	FinishedAt   *time.Time             `json:"finishedAt"`
	Version      int32                  `json:"-"`
}

// MarkFailed 将任务置为失败并记录原因，结束时间取 at
func (r *ScheduleRun) MarkFailed(cause error, at time.Time) {
	r.Status = ScheduleRunStatusFailed
	r.ErrorMessage = cause.Error()
	r.FinishedAt = &at
}

// ScheduleRunJob 为投递到排课队列中的消息体
type ScheduleRunJob struct {
	RunID int64 `json:"runID"`
}

// ScheduleRunProgress 由 worker 写入 redis，供查询接口读取
type ScheduleRunProgress struct {
	Generation  int32     `json:"generation"`
	Generations int32     `json:"generations"`
	BestFitness float64   `json:"bestFitness"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ScheduleRunProgressKey(runID int64) string {
	return fmt.Sprintf("schedule_run_progress_%d", runID)
}

func ScheduleRunLockKey(runID int64) string {
	return fmt.Sprintf("schedule_run_lock_%d", runID)
}
