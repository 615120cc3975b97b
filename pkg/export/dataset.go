package export

// Dataset defines tabular export content for progress reports.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}
