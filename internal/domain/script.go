package domain

import "time"

// ScriptType names the five script shapes a script row can declare. Only
// StreamTest and ReportFilterTestResult are ever executed by the Streamer;
// the rest describe UI-rendering or raw-span hooks that this pipeline's
// core does not drive.
type ScriptType string

const (
	ScriptStreamSpan            ScriptType = "StreamSpan"
	ScriptStreamTest            ScriptType = "StreamTest"
	ScriptReportFilterTestResult ScriptType = "ReportFilterTestResult"
	ScriptUITest                ScriptType = "UITest"
	ScriptUITestResult          ScriptType = "UITestResult"
)

type ScriptStatus string

const (
	ScriptEnabled  ScriptStatus = "Enabled"
	ScriptDisabled ScriptStatus = "Disabled"
)

// Script is operator-supplied code driving the Streamer. Scripts are
// trusted; the interpreter is not a sandbox against malicious input.
type Script struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Source    string       `json:"source"`
	Type      ScriptType   `json:"scriptType"`
	DateAdded time.Time    `json:"dateAdded"`
	Status    ScriptStatus `json:"status"`
}

func (s Script) Enabled() bool { return s.Status == ScriptEnabled }

// ExecutableTypes are the script kinds the Streamer loads and runs.
var ExecutableTypes = []ScriptType{ScriptStreamTest, ScriptReportFilterTestResult}
