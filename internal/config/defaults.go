package config

const (
	defaultDataDir                   = "~/.local/share/taskmill"
	defaultLogDir                    = "~/.local/share/taskmill/logs"
	defaultInboxDir                  = "~/taskmill/inbox"
	defaultParserMode                = string(ModeOpenAIFirst)
	defaultOpenAIBaseURL             = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel               = "gpt-4o-mini"
	defaultOpenAITimeoutSeconds      = 60
	defaultOpenAIMaxInputChars       = 24000
	defaultNtfyTimeoutSeconds        = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultWorkflowPollInterval      = 5
	defaultWorkflowErrorRetry        = 10
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			InboxDir: defaultInboxDir,
		},
		Parser: Parser{
			Mode: defaultParserMode,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeoutSeconds,
			MaxInputChars:  defaultOpenAIMaxInputChars,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultWorkflowPollInterval,
			ErrorRetryInterval: defaultWorkflowErrorRetry,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
		},
		Notifications: Notifications{
			TimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
