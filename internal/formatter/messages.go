package formatter

import (
	"fmt"

	"github.com/harrison/pvcheck/internal/models"
)

// ResultMessage describes how a run ended, as shown in reports.
// program is the name of the executable under test.
func ResultMessage(kind models.ExecutionKind, status int, program string) string {
	switch kind {
	case models.KindOk:
		return "ok"
	case models.KindTimeout:
		return "TIMEOUT EXPIRED: PROCESS TERMINATED"
	case models.KindOutputLimitExceeded:
		return "TOO MANY OUTPUT LINES"
	case models.KindCrashedWithSignal:
		return "PROCESS ENDED WITH A FAILURE (SEGMENTATION FAULT)"
	case models.KindNonZeroExit:
		return fmt.Sprintf("PROCESS ENDED WITH A FAILURE (ERROR CODE %d)", status)
	case models.KindExecutableNotFound:
		return fmt.Sprintf("FAILED TO RUN THE FILE '%s' (the file does not exist)", program)
	default:
		return string(kind)
	}
}

// ResultCode is the numeric outcome written in the CSV CODE column.
func ResultCode(kind models.ExecutionKind) string {
	switch kind {
	case models.KindOk:
		return "0"
	case models.KindTimeout:
		return "1"
	case models.KindCrashedWithSignal:
		return "2"
	case models.KindNonZeroExit:
		return "3"
	case models.KindExecutableNotFound:
		return "4"
	case models.KindOutputLimitExceeded:
		return "5"
	default:
		return ""
	}
}

func programName(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
