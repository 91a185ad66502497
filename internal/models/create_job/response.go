package create_job

import jobmodels "io.fixlink.jobboard/internal/models/job"

type CreateJobResponse struct {
	Job     jobmodels.Job `json:"job"`
	Message string        `json:"message"`
}
