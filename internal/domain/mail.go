package domain

const (
	MailTypeCreateUser           = "create_user"
	MailTypeScheduleRunCompleted = "schedule_run_completed"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ScheduleRunCompletedMailData struct {
	FullName     string            `json:"fullName"`
	RunID        int64             `json:"runID"`
	CatalogName  string            `json:"catalogName"`
	Status       ScheduleRunStatus `json:"status"`
	BestFitness  float64           `json:"bestFitness"`
	Valid        bool              `json:"valid"`
	ErrorMessage string            `json:"errorMessage"`
}
