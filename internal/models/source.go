package models

// Branch is a git branch as reported by the Jules API.
type Branch struct {
	DisplayName string `json:"displayName,omitempty"`
}

// GitHubRepo describes the GitHub repository behind a source.
type GitHubRepo struct {
	Owner         string   `json:"owner,omitempty"`
	Repo          string   `json:"repo,omitempty"`
	IsPrivate     *bool    `json:"isPrivate,omitempty"`
	DefaultBranch *Branch  `json:"defaultBranch,omitempty"`
	Branches      []Branch `json:"branches,omitempty"`
}

// Source is a connectable repository. The remote system owns its lifecycle;
// this layer only reads it. Name is the stable resource identifier
// (e.g. "sources/github/owner/repo").
type Source struct {
	Name       string      `json:"name"`
	ID         string      `json:"id,omitempty"`
	GitHubRepo *GitHubRepo `json:"githubRepo,omitempty"`
}

// Validate checks the fields the API contract marks required.
func (s *Source) Validate() error {
	if s.Name == "" {
		return missingField("name")
	}
	return nil
}

// SourceContext binds a session to a source and optional branch.
// An empty Branch means the repository default.
type SourceContext struct {
	Source string `json:"source"`
	Branch string `json:"branch,omitempty"`
}

func (sc *SourceContext) validate(path string) error {
	if sc.Source == "" {
		return missingField(path + ".source")
	}
	return nil
}

// SourceList is one page of sources.
type SourceList struct {
	Sources       []Source `json:"sources"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}
