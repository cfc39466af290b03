package client

// ServiceStatus mirrors the daemon's status payload.
type ServiceStatus struct {
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	PID           int     `json:"pid,omitempty"`
	Port          int     `json:"port,omitempty"`
	UptimeSeconds uint64  `json:"uptime,omitempty"`
	Health        string  `json:"health"`
	CPUPercent    float64 `json:"cpuUsage"`
	MemoryMB      uint64  `json:"memoryUsage"`
	AutoRestart   bool    `json:"autoRestartEnabled"`
	Restarts      int     `json:"restartCount"`
}

// LogEntry is one tailed log line.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Source    string `json:"source"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

type resultsResponse struct {
	Results []string `json:"results"`
}

type healthResponse struct {
	Health string `json:"health"`
}

type stopResponse struct {
	OK      bool `json:"ok"`
	Stopped bool `json:"stopped"`
}
