package logging

import "strings"

// FormatSubject builds the action/job subject string used in console output.
func FormatSubject(action, jobID string) string {
	action = strings.TrimSpace(action)
	jobID = strings.TrimSpace(jobID)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	switch {
	case action != "" && jobID != "":
		return action + " · job " + jobID
	case action != "":
		return action
	case jobID != "":
		return "job " + jobID
	}
	return ""
}
