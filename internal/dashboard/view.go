package dashboard

import (
	"eduseek/internal/onq"
)

type viewResponse struct {
	Phase       onq.Phase       `json:"phase"`
	AttemptID   string          `json:"attempt_id,omitempty"`
	JobID       string          `json:"job_id,omitempty"`
	Step        onq.Step        `json:"step,omitempty"`
	StepLabel   string          `json:"step_label,omitempty"`
	Progress    float64         `json:"progress"`
	Message     string          `json:"message,omitempty"`
	TwofaNumber string          `json:"twofa_number,omitempty"`
	Error       string          `json:"error,omitempty"`
	Hint        string          `json:"hint,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Results     *resultResponse `json:"results,omitempty"`
}

type resultResponse struct {
	FilesFound int     `json:"files_found"`
	Uploaded   int     `json:"uploaded"`
	Duplicates int     `json:"duplicates"`
	Failed     int     `json:"failed"`
	Missing    int     `json:"missing"`
	CourseID   *string `json:"course_id"`
	CourseName *string `json:"course_name"`
}

func toViewResponse(v onq.View) viewResponse {
	resp := viewResponse{
		Phase:     v.Phase,
		AttemptID: v.AttemptID,
		JobID:     v.JobID,
		Hint:      v.Hint,
	}
	if v.Err != nil {
		resp.Error = v.Err.Error()
	}

	switch s := v.State.(type) {
	case onq.Running:
		resp.Step = s.Step
		resp.StepLabel = s.Step.Label()
		resp.Progress = s.Progress
		resp.Message = s.Message
		if s.TwoFactor != nil {
			resp.TwofaNumber = s.TwoFactor.Number
		}
	case onq.Completed:
		resp.Step = onq.StepCompleted
		resp.StepLabel = onq.StepCompleted.Label()
		resp.Progress = 100
		resp.Message = s.Message
		resp.Summary = onq.Summary(s.Result)
		resp.Results = &resultResponse{
			FilesFound: s.Result.FilesFound,
			Uploaded:   s.Result.Uploaded,
			Duplicates: s.Result.Duplicates,
			Failed:     s.Result.Failed,
			Missing:    s.Result.Missing,
			CourseID:   s.Result.CourseID,
			CourseName: s.Result.CourseName,
		}
	case onq.Failed:
		resp.Step = onq.StepError
		resp.StepLabel = onq.StepError.Label()
	}

	return resp
}
