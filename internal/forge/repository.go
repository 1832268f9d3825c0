package forge

// UnknownLanguageConstant labels repositories whose primary language is not reported.
const UnknownLanguageConstant = "Unknown"

// Repository describes one remote repository. Values are never mutated after decoding.
type Repository struct {
	Name          string
	CloneURL      string
	SSHURL        string
	WebURL        string
	IsPrivate     bool
	DefaultBranch string
	Language      string
}

// EnumerationResult is the ordered repository list produced by one enumeration.
type EnumerationResult struct {
	Repositories []Repository
	// RequestCount is the number of listing pages requested, including the terminating empty page.
	RequestCount int
}

// Names returns repository names in enumeration order.
func (result EnumerationResult) Names() []string {
	names := make([]string, 0, len(result.Repositories))
	for _, repository := range result.Repositories {
		names = append(names, repository.Name)
	}
	return names
}
