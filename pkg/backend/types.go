package backend

// Details is the long-form description of a package.
type Details struct {
	ID          PackageID `json:"id"`
	License     string    `json:"license"`
	Group       Group     `json:"group"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Size        uint64    `json:"size"`
}

// UpdateDetail describes a pending update.
type UpdateDetail struct {
	ID          PackageID   `json:"id"`
	Updates     []PackageID `json:"updates"`
	Obsoletes   []PackageID `json:"obsoletes,omitempty"`
	VendorURL   string      `json:"vendor_url,omitempty"`
	BugzillaURL string      `json:"bugzilla_url,omitempty"`
	CVEURL      string      `json:"cve_url,omitempty"`
	Restart     Restart     `json:"restart"`
	Text        string      `json:"text"`
	Changelog   string      `json:"changelog,omitempty"`
	State       UpdateState `json:"state"`
	Issued      string      `json:"issued,omitempty"`
}

// RepoDetail describes a configured repository.
type RepoDetail struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// RepoSignature asks the client to trust a repository signing key.
type RepoSignature struct {
	PackageID      PackageID `json:"package_id"`
	RepoName       string    `json:"repo_name"`
	KeyURL         string    `json:"key_url"`
	KeyUserID      string    `json:"key_userid"`
	KeyID          string    `json:"key_id"`
	KeyFingerprint string    `json:"key_fingerprint"`
	KeyTimestamp   string    `json:"key_timestamp"`
	Type           SigType   `json:"type"`
}

// Eula asks the client to accept a license agreement.
type Eula struct {
	ID        string    `json:"id"`
	PackageID PackageID `json:"package_id"`
	Vendor    string    `json:"vendor"`
	Agreement string    `json:"agreement"`
}

// Result is one package line of a query before emission.
type Result struct {
	Info    Info
	ID      PackageID
	Summary string
}
