package api

// About is some general information about the relay
type About struct {
	App       string       `json:"app"`
	ID        string       `json:"id"`
	CreatedAt string       `json:"created_at"` // RFC3339
	Uptime    uint64       `json:"uptime_seconds"`
	BaseURL   string       `json:"base_url"`
	Proxy     string       `json:"proxy"`
	Storage   string       `json:"storage"`
	Version   AboutVersion `json:"version"`
}

// AboutVersion is some information about the binary
type AboutVersion struct {
	Number   string `json:"number"`
	Commit   string `json:"repository_commit"`
	Branch   string `json:"repository_branch"`
	Build    string `json:"build_date"` // RFC3339
	Arch     string `json:"arch"`
	Compiler string `json:"compiler"`
}
