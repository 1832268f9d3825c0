package forge

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	authenticatedUserPagePathTemplateConstant = "/user/repos?page=%d&per_page=%d&sort=updated"
	organizationPagePathTemplateConstant      = "/orgs/%s/repos?page=%d&per_page=%d"
	authenticatedUserModeLabelConstant        = "authenticated user"
	organizationModeLabelTemplateConstant     = "organization %s"
	organizationNameRequiredMessageConstant   = "organization name required"
)

// ErrOrganizationNameRequired indicates an organization mode without a name.
var ErrOrganizationNameRequired = errors.New(organizationNameRequiredMessageConstant)

// EnumerationModeKind selects which listing endpoint is paginated.
type EnumerationModeKind int

// Enumeration mode kinds.
const (
	ModeAuthenticatedUser EnumerationModeKind = iota
	ModeOrganization
)

// EnumerationMode is an explicit choice between the authenticated user's repositories and a named organization's.
type EnumerationMode struct {
	kind         EnumerationModeKind
	organization string
}

// AuthenticatedUserMode enumerates repositories owned by or shared with the token holder.
func AuthenticatedUserMode() EnumerationMode {
	return EnumerationMode{kind: ModeAuthenticatedUser}
}

// OrganizationMode enumerates repositories of the named organization.
func OrganizationMode(organization string) (EnumerationMode, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return EnumerationMode{}, ErrOrganizationNameRequired
	}
	return EnumerationMode{kind: ModeOrganization, organization: trimmedOrganization}, nil
}

// Kind reports the selected mode.
func (mode EnumerationMode) Kind() EnumerationModeKind {
	return mode.kind
}

// Organization returns the organization name, empty in authenticated user mode.
func (mode EnumerationMode) Organization() string {
	return mode.organization
}

// PagePath builds the API path requesting the given page.
func (mode EnumerationMode) PagePath(page int, pageSize int) string {
	if mode.kind == ModeOrganization {
		return fmt.Sprintf(organizationPagePathTemplateConstant, url.PathEscape(mode.organization), page, pageSize)
	}
	return fmt.Sprintf(authenticatedUserPagePathTemplateConstant, page, pageSize)
}

// String describes the mode for logs and prompts.
func (mode EnumerationMode) String() string {
	if mode.kind == ModeOrganization {
		return fmt.Sprintf(organizationModeLabelTemplateConstant, mode.organization)
	}
	return authenticatedUserModeLabelConstant
}
