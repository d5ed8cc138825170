package pkg

// VaccinationSchedule describes when a vaccine should be given.  The
// TargetDisease field is the natural key used for lookups.
type VaccinationSchedule struct {
	ID              string `json:"id"`
	TargetDisease   string `json:"target_disease"`
	AgeGroup        string `json:"age_group"`
	ScheduleDetails string `json:"schedule_details"`
}

// SymptomGuide holds the common symptoms of a disease together with
// prevention advice.  DiseaseName is the natural key.
type SymptomGuide struct {
	ID             string `json:"id"`
	DiseaseName    string `json:"disease_name"`
	CommonSymptoms string `json:"common_symptoms"`
	Prevention     string `json:"prevention"`
}

// DiseaseOutbreak is a disease outbreak report pulled from the external
// feed.  Title is the natural key: at most one record exists per title.
// PublicationDate is kept exactly as the feed reported it.
type DiseaseOutbreak struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	PublicationDate string `json:"publication_date"`
	URL             string `json:"url"`
}

// Counts reports the number of records per collection.
type Counts struct {
	VaccinationSchedules int `json:"vaccination_schedules"`
	SymptomGuides        int `json:"symptom_guides"`
	DiseaseOutbreaks     int `json:"disease_outbreaks"`
}

// AskRequest is the body accepted by the message endpoint.
type AskRequest struct {
	Text string `json:"text"`
}

// AskResponse carries the assistant's final answer.
type AskResponse struct {
	Reply string `json:"reply"`
}
