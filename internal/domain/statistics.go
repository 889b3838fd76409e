package domain

type DayDistribution struct {
	MWF           int32   `json:"mwf"`
	TR            int32   `json:"tr"`
	MWFPercentage float64 `json:"mwfPercentage"`
	TRPercentage  float64 `json:"trPercentage"`
}

// GenerationStatistics 为某一代种群的统计快照，Generation 从 1 开始
type GenerationStatistics struct {
	Generation           int32           `json:"generation"`
	TotalCourses         int32           `json:"totalCourses"`
	Distribution         DayDistribution `json:"distribution"`
	PreferenceAdherence  float64         `json:"preferenceAdherence"`
	AverageSatisfaction  float64         `json:"averageSatisfaction"`
	AverageFitness       float64         `json:"averageFitness"`
	MaxFitness           float64         `json:"maxFitness"`
	PreferenceViolation  float64         `json:"preferenceViolation"`
	DuplicateAssignments int32           `json:"duplicateAssignments"`
	InvalidChromosomes   int32           `json:"invalidChromosomes"`
}
