package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port         string
	WorkerCount  int
	QueueSize    int
	APIAccessKey string
	ReplyURL     string

	// Fetch behavior
	UserAgent    string
	FetchTimeout int
	MaxBodySize  int64

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
