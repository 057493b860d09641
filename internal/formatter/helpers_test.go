package formatter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harrison/pvcheck/internal/executor"
	"github.com/harrison/pvcheck/internal/models"
	"github.com/harrison/pvcheck/internal/parser"
)

// sampleSuite has a passing test and a test with a wrong line and a
// missing section.
const sampleSuite = `[.TEST]
sum
[.INPUT]
1 2
[SUM]
3
[.TEST]
product
[.ARGS]
.FILE
[.FILE]
data
[PRODUCT]
2
6
[EXTRA]
x
`

var sampleResults = []*models.ExecutionResult{
	{Kind: models.KindOk, Stdout: "[SUM]\n3\n"},
	{Kind: models.KindOk, Stdout: "[PRODUCT]\n2\n7\n"},
}

// scriptedExecutor returns canned results in order.
type scriptedExecutor struct {
	results []*models.ExecutionResult
	errs    []error
	calls   int
}

func (e *scriptedExecutor) Execute(ctx context.Context, req executor.Request) (*models.ExecutionResult, error) {
	i := e.calls
	e.calls++
	if i < len(e.errs) && e.errs[i] != nil {
		return nil, e.errs[i]
	}
	if i < len(e.results) {
		return e.results[i], nil
	}
	return &models.ExecutionResult{Kind: models.KindOk}, nil
}

// runSession drives sink through a whole session of suiteText.
func runSession(t *testing.T, sink executor.ResultSink, suiteText string, results []*models.ExecutionResult, errs ...error) error {
	t.Helper()
	suite := models.BuildSuite(parser.ParseString(suiteText))
	exec := &scriptedExecutor{results: results, errs: errs}
	orch := executor.NewOrchestrator(exec, sink, nil)
	_, err := orch.RunSuite(context.Background(), suite, []string{"./prog"}, executor.RunOptions{TestFile: "suite.test"})
	return err
}

func runSample(t *testing.T, sink executor.ResultSink) {
	t.Helper()
	require.NoError(t, runSession(t, sink, sampleSuite, sampleResults))
}
