package agent

const defaultMaxToolRounds = 8

type options struct {
	tools         Tools
	maxToolRounds int
}

type OptionFunc func(o *options)

// bind tool into model
func WithTool(tools ...ToolProvider) OptionFunc {
	return func(o *options) {
		o.tools = tools
	}
}

// set maximum number of tool rounds a single completion can run.
func WithMaxToolRounds(n int) OptionFunc {
	return func(o *options) {
		o.maxToolRounds = n
	}
}
