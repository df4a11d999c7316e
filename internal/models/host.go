package models

// Port represents an open TCP port reported by the port scanner
type Port struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
	State    string `json:"state"`
}

// Service represents a live HTTP endpoint found by header probing
type Service struct {
	URL    string `json:"url"`
	Status string `json:"status"`
	Server string `json:"server"`
}

// Finding is a single line reported by the web vulnerability scanner
type Finding struct {
	Target      string `json:"target"`
	Description string `json:"description"`
}

// Summary holds the untruncated totals of a scan
type Summary struct {
	Subdomains int `json:"subdomains"`
	Ports      int `json:"ports"`
	Services   int `json:"services"`
	Findings   int `json:"findings"`
}
