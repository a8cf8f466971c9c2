package core

// FatalReporter is the boundary that turns an unrecoverable error into
// process (or subsystem) termination. Implementations are not expected to return.
type FatalReporter interface {
	ReportFatal(msg string)
}

// FatalReporterFunc adapts a plain function to a FatalReporter.
type FatalReporterFunc func(msg string)

func (f FatalReporterFunc) ReportFatal(msg string) {
	f(msg)
}

// LogFatalReporter logs the message at fatal level, which exits the process.
type LogFatalReporter struct{}

func (LogFatalReporter) ReportFatal(msg string) {
	LogFatal(msg)
}
