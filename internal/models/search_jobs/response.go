package search_jobs

import jobmodels "io.fixlink.jobboard/internal/models/job"

type SearchJobsResponse struct {
	Jobs  []jobmodels.Job `json:"jobs"`
	Count int             `json:"count"`
}
