package orchestrate

// Progress thresholds of the run narrative: a fixed floor once a model's
// dispatch starts, a downloading threshold while the asset is fetched,
// and 100 only after reconciliation.
const (
	progressFloor       = 10.0
	progressDownloading = 90.0
	progressDone        = 100.0
)

// ProgressEvent is one step of the run narrative, consumed by exactly one
// subscriber (the UI layer).
type ProgressEvent struct {
	ModelIndex int     `json:"model_index"`
	ModelID    string  `json:"model_id"`
	Percent    float64 `json:"percent"`
	Message    string  `json:"message"`
	Phase      Phase   `json:"phase"`
}

// bandProgress maps a job's own 0–100 percentage into the floor..download
// band of the aggregate narrative.
func bandProgress(jobPercent float64) float64 {
	if jobPercent < 0 {
		jobPercent = 0
	}
	if jobPercent > 100 {
		jobPercent = 100
	}
	return progressFloor + jobPercent/100*(progressDownloading-progressFloor)
}
